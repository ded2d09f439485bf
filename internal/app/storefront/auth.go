package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/commerce"
	"storefront-bff/internal/logging"
	"storefront-bff/internal/shopperauth"
)

type LoginStartInput struct {
	Username      string
	Password      string
	CodeChallenge string
	// RedirectURL overrides the configured callback when set.
	RedirectURL string
}

type LoginEndInput struct {
	Code         string
	CodeVerifier string
	USID         string
	RedirectURL  string
}

// ProfileSummary is what the header shows after login.
type ProfileSummary struct {
	FirstName  string
	LastName   string
	IsLoggedIn bool
}

type RegisterInput struct {
	FirstName   string `validate:"required"`
	LastName    string `validate:"required"`
	Email       string `validate:"required,email"`
	PhoneMobile string `validate:"required"`
	Password    string `validate:"required,min=8"`
}

var validate = validator.New()

func (s *Service) redirectURL(override string) string {
	if override != "" {
		return override
	}
	return s.cfg.RedirectURL
}

// LoginStart checks the shopper's credentials. The guest usid is passed along
// so the guest session stays linked to the registered one.
func (s *Service) LoginStart(ctx context.Context, req Request, in LoginStartInput) (string, error) {
	location, err := s.auth.LoginStart(ctx, shopperauth.LoginStartParams{
		Username:      in.Username,
		Password:      in.Password,
		CodeChallenge: in.CodeChallenge,
		SiteID:        req.SiteID,
		RedirectURL:   s.redirectURL(in.RedirectURL),
		GuestUSID:     req.Session.Tokens().USID,
	})
	if errors.Is(err, shopperauth.ErrInvalidCredentials) {
		return "", apperr.Authentication(apperr.CodeInvalidCredentials, "Invalid username or password.", err)
	}
	if err != nil {
		return "", apperr.Internal(err)
	}
	return location, nil
}

// LoginEnd exchanges the authorization code, moves the guest basket over to
// the registered shopper and rewrites the session cookies.
func (s *Service) LoginEnd(ctx context.Context, req Request, in LoginEndInput) (*ProfileSummary, error) {
	grant, err := s.auth.LoginEnd(ctx, in.Code, in.CodeVerifier, in.USID, s.redirectURL(in.RedirectURL))
	if err != nil {
		return nil, apperr.Authentication(apperr.CodeInvalidCredentials, "Login could not be completed.", err)
	}

	guestBaskets, err := s.commerce.CustomerBaskets(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID)
	if err != nil {
		return nil, upstream(err)
	}
	if len(guestBaskets) > 0 {
		if _, err := s.commerce.TransferBasket(ctx, grant.AccessToken, req.SiteID); err != nil {
			return nil, upstream(err)
		}
	}

	id, err := s.sessions.Establish(req.Session, grant)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("write session: %w", err))
	}

	customer, err := s.commerce.GetCustomer(ctx, id.AccessToken, req.SiteID, id.CustomerID)
	if err != nil {
		return nil, upstream(err)
	}
	logging.Ctx(ctx).Info().Str("customer_id", id.CustomerID).Bool("basket_transferred", len(guestBaskets) > 0).Msg("shopper logged in")
	return &ProfileSummary{
		FirstName:  customer.FirstName,
		LastName:   customer.LastName,
		IsLoggedIn: customer.AuthType == "registered",
	}, nil
}

// Register creates a registered customer. The email doubles as the login.
func (s *Service) Register(ctx context.Context, req Request, in RegisterInput) (string, error) {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Email":
				return "", apperr.Validation(apperr.CodeInvalidEmail, "The email address is invalid.")
			case "Password":
				return "", apperr.Validation(apperr.CodeInvalidPassword, "The password does not meet the requirements.")
			}
		}
		return "", apperr.Validation(apperr.CodeInvalidInput, "Invalid registration data.")
	}

	c, err := s.commerce.RegisterCustomer(ctx, req.Identity.AccessToken, req.SiteID, commerce.NewCustomer{
		Login:       in.Email,
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneMobile: in.PhoneMobile,
	}, in.Password)
	if err != nil {
		return "", upstream(err)
	}
	return c.Email, nil
}

// Logout replaces the session with a fresh guest before revoking the old
// tokens, so the browser is never left without a session.
func (s *Service) Logout(ctx context.Context, req Request) error {
	if _, err := s.sessions.Guest(ctx, req.Session); err != nil {
		return err
	}
	if err := s.auth.Logout(ctx, req.Identity.AccessToken, req.Identity.RefreshToken, req.SiteID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
