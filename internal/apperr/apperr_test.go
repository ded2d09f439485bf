package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestAs_UnclassifiedIsInternal(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	e := As(cause)
	if e.Code != CodeInternal || e.Class != ClassUpstream {
		t.Fatalf("got %+v", e)
	}
	if !errors.Is(e, cause) {
		t.Error("cause must stay in the chain")
	}
	if As(nil) != nil || CodeOf(nil) != "" {
		t.Error("nil must map to nil")
	}
}

func TestAs_FindsWrapped(t *testing.T) {
	inner := User(CodeEmptyBasket, "Basket is empty.")
	wrapped := fmt.Errorf("create order: %w", inner)
	if got := As(wrapped); got != inner {
		t.Fatalf("got %+v", got)
	}
	if CodeOf(wrapped) != CodeEmptyBasket {
		t.Errorf("code = %s", CodeOf(wrapped))
	}
}

func TestClientMessage_HidesDetail(t *testing.T) {
	for _, tc := range []struct {
		err  *Error
		want string
	}{
		{Internal(errors.New("secret")), "Internal Server Error"},
		{Configuration("Invalid product configuration", errors.New("pricebook x")), "Internal Server Error"},
		{NonAtomic("price pending", errors.New("patch failed")), "Internal Server Error"},
		{Validation(CodeInvalidIngredients, "Invalid ingredients."), "Invalid ingredients."},
		{Authentication(CodeInvalidCredentials, "Invalid credentials.", nil), "Invalid credentials."},
		{User(CodeNoStoreSelected, "No store selected."), "No store selected."},
	} {
		if got := tc.err.ClientMessage(); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.err.Code, got, tc.want)
		}
	}
}

func TestFromUpstreamType(t *testing.T) {
	cause := errors.New("400")
	e := FromUpstreamType("https://api.commercecloud.salesforce.com/documentation/error/v1/errors/login-already-in-use", cause)
	if e.Code != CodeLoginAlreadyExists || e.Class != ClassUser || e.ClientMessage() == "" {
		t.Errorf("got %+v", e)
	}
	if e := FromUpstreamType("https://example.com/unknown", cause); e.Code != CodeInternal {
		t.Errorf("unknown type: got %s", e.Code)
	}
}
