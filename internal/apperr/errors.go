// Package apperr classifies failures into the client-safe codes exposed by the GraphQL layer.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInternal                 Code = "INTERNAL_SERVER_ERROR"
	CodeInvalidCredentials       Code = "INVALID_CREDENTIALS"
	CodeInvalidIngredients       Code = "INVALID_INGREDIENTS"
	CodeInvalidInput             Code = "INVALID_INPUT"
	CodeInvalidProductConfig     Code = "INVALID_PRODUCT_CONFIGURATION"
	CodePriceAdjustmentFailed    Code = "PRICE_ADJUSTMENT_FAILED"
	CodeLoginAlreadyExists       Code = "LOGIN_ALREADY_EXISTS"
	CodeInvalidEmail             Code = "INVALID_EMAIL"
	CodeInvalidPassword          Code = "INVALID_PASSWORD"
	CodeInvalidCurrentPassword   Code = "INVALID_CURRENT_PASSWORD"
	CodeCustomerNotFound         Code = "CUSTOMER_NOT_FOUND"
	CodeProductNotFound          Code = "PRODUCT_NOT_FOUND"
	CodeProductNotAvailable      Code = "PRODUCT_NOT_AVAILABLE"
	CodeCategoryNotFound         Code = "CATEGORY_NOT_FOUND"
	CodeNoStoreSelected          Code = "NO_STORE_SELECTED"
	CodeBasketNotFound           Code = "BASKET_NOT_FOUND"
	CodeShipmentsNotFound        Code = "SHIPMENTS_NOT_FOUND"
	CodeEmptyBasket              Code = "EMPTY_BASKET"
	CodeNoProductsToAdd          Code = "NO_PRODUCTS_TO_ADD"
	CodeNoDeliveryMethods        Code = "NO_DELIVERY_METHODS"
	CodeOrderNotFound            Code = "ORDER_NOT_FOUND"
	CodePaymentInstrumentMissing Code = "PAYMENT_INSTRUMENT_NOT_FOUND"
)

// Class is the failure taxonomy a Code belongs to.
type Class int

const (
	ClassUpstream Class = iota
	ClassConfiguration
	ClassAuthentication
	ClassValidation
	ClassNonAtomic
	ClassUser
)

// Error is a classified failure. Message is what the client sees; Err keeps the
// underlying cause for logs only.
type Error struct {
	Code    Code
	Class   Class
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ClientMessage is the message safe to return to the caller. Configuration,
// upstream and non-atomic failures never leak their detail.
func (e *Error) ClientMessage() string {
	switch e.Class {
	case ClassUpstream, ClassConfiguration, ClassNonAtomic:
		return "Internal Server Error"
	}
	return e.Message
}

const genericMessage = "Internal Server Error"

func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Class: ClassUpstream, Message: genericMessage, Err: err}
}

func Configuration(msg string, err error) *Error {
	return &Error{Code: CodeInvalidProductConfig, Class: ClassConfiguration, Message: msg, Err: err}
}

func Authentication(code Code, msg string, err error) *Error {
	return &Error{Code: code, Class: ClassAuthentication, Message: msg, Err: err}
}

func Validation(code Code, msg string) *Error {
	return &Error{Code: code, Class: ClassValidation, Message: msg}
}

func NonAtomic(msg string, err error) *Error {
	return &Error{Code: CodePriceAdjustmentFailed, Class: ClassNonAtomic, Message: msg, Err: err}
}

// User is a business-rule rejection whose message is safe to show.
func User(code Code, msg string) *Error {
	return &Error{Code: code, Class: ClassUser, Message: msg}
}

// As returns the classified error in err's chain. Unclassified errors become
// CodeInternal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// CodeOf is shorthand for As(err).Code.
func CodeOf(err error) Code {
	if e := As(err); e != nil {
		return e.Code
	}
	return ""
}

var upstreamTypes = map[string]Code{
	"https://api.commercecloud.salesforce.com/documentation/error/v1/errors/login-already-in-use": CodeLoginAlreadyExists,
	"https://api.commercecloud.salesforce.com/documentation/error/v1/errors/invalid-email":        CodeInvalidEmail,
	"https://api.commercecloud.salesforce.com/documentation/error/v1/errors/invalid-password":     CodeInvalidPassword,
	"https://api.commercecloud.salesforce.com/documentation/error/v1/errors/customer-not-found":   CodeCustomerNotFound,
	"https://api.commercecloud.salesforce.com/documentation/error/v1/errors/product-not-found":    CodeProductNotFound,
	"https://api.commercecloud.salesforce.com/documentation/error/v1/errors/update-password":      CodeInvalidCurrentPassword,
}

var userMessages = map[Code]string{
	CodeLoginAlreadyExists:     "The login is already in use.",
	CodeInvalidEmail:           "The email address is invalid.",
	CodeInvalidPassword:        "The password does not meet the requirements.",
	CodeCustomerNotFound:       "Customer not found.",
	CodeProductNotFound:        "Product not found.",
	CodeInvalidCurrentPassword: "The current password is incorrect.",
}

// FromUpstreamType maps a commerce platform problem `type` URI to a user-facing
// error. Unknown types are upstream failures.
func FromUpstreamType(typ string, cause error) *Error {
	code, ok := upstreamTypes[typ]
	if !ok {
		return Internal(cause)
	}
	return &Error{Code: code, Class: ClassUser, Message: userMessages[code], Err: cause}
}
