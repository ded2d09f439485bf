package storefront

import (
	"encoding/json"
	"net/http"
	"testing"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/identity"
	"storefront-bff/internal/shopperauth"
)

func TestLoginStart_PassesGuestUSID(t *testing.T) {
	srv := routingServer(t, []routeEntry{{
		method: http.MethodPost,
		suffix: "/oauth2/login",
		status: http.StatusSeeOther,
		header: http.Header{"Location": {"https://shop.example.com/callback?code=abc&usid=usid-1"}},
		check: func(t *testing.T, r *http.Request, _ []byte) {
			if got := r.URL.Query().Get("usid"); got != "usid-1" {
				t.Errorf("usid: got %q", got)
			}
			if got := r.URL.Query().Get("channel_id"); got != "RefArch" {
				t.Errorf("channel_id: got %q", got)
			}
			if got := r.URL.Query().Get("redirect_uri"); got != "https://shop.example.com/callback" {
				t.Errorf("redirect_uri: got %q", got)
			}
		},
	}})
	svc := newSvc(t, srv, nil)

	loc, err := svc.LoginStart(t.Context(), newReq(""), LoginStartInput{
		Username: "jane@example.com", Password: "secret-pw", CodeChallenge: "challenge",
	})
	if err != nil {
		t.Fatalf("LoginStart: %v", err)
	}
	if loc != "https://shop.example.com/callback?code=abc&usid=usid-1" {
		t.Errorf("location: got %q", loc)
	}
}

func TestLoginStart_WrongPassword(t *testing.T) {
	srv := routingServer(t, []routeEntry{
		{method: http.MethodPost, suffix: "/oauth2/login", status: http.StatusUnauthorized},
	})
	svc := newSvc(t, srv, nil)

	_, err := svc.LoginStart(t.Context(), newReq(""), LoginStartInput{Username: "jane@example.com", Password: "nope"})
	assertCode(t, err, apperr.CodeInvalidCredentials)
}

func TestLoginEnd_TransfersGuestBasket(t *testing.T) {
	transferred := false
	srv := routingServer(t, []routeEntry{
		{
			method: http.MethodPost,
			suffix: "/oauth2/token",
			body: map[string]any{
				"access_token":  "registered-at",
				"refresh_token": "registered-rt",
				"token_type":    "Bearer",
				"expires_in":    1800,
				"usid":          "usid-1",
				"customer_id":   "c-2",
			},
		},
		{
			method: http.MethodGet,
			suffix: "/customers/c-1/baskets",
			body:   map[string]any{"total": 1, "baskets": []map[string]any{{"basketId": "guest-basket"}}},
		},
		{
			method: http.MethodPost,
			suffix: "/baskets/actions/transfer",
			body:   map[string]any{"basketId": "guest-basket"},
			check: func(t *testing.T, r *http.Request, _ []byte) {
				transferred = true
				if got := r.Header.Get("Authorization"); got != "Bearer registered-at" {
					t.Errorf("transfer must use the registered token, got %q", got)
				}
			},
		},
		{
			method: http.MethodGet,
			suffix: "/customers/c-2",
			body:   map[string]any{"customerId": "c-2", "firstName": "Jane", "lastName": "Doe", "authType": "registered"},
		},
	})
	var established shopperauth.Grant
	sessions := &fakeSessions{
		establishFn: func(_ identity.TokenStore, g shopperauth.Grant) (identity.Identity, error) {
			established = g
			return identity.Identity{AccessToken: g.AccessToken, CustomerID: g.CustomerID, USID: g.USID}, nil
		},
	}
	svc := newSvc(t, srv, sessions)

	got, err := svc.LoginEnd(t.Context(), newReq(""), LoginEndInput{Code: "abc", CodeVerifier: "verifier", USID: "usid-1"})
	if err != nil {
		t.Fatalf("LoginEnd: %v", err)
	}
	if !transferred {
		t.Error("guest basket was not transferred")
	}
	if established.CustomerID != "c-2" || established.RefreshToken != "registered-rt" {
		t.Errorf("session established with %+v", established)
	}
	if got.FirstName != "Jane" || !got.IsLoggedIn {
		t.Errorf("summary: %+v", got)
	}
}

func TestRegister_Validation(t *testing.T) {
	valid := RegisterInput{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", PhoneMobile: "555-0100", Password: "longenough",
	}
	tests := []struct {
		name string
		edit func(*RegisterInput)
		want apperr.Code
	}{
		{"bad email", func(in *RegisterInput) { in.Email = "jane" }, apperr.CodeInvalidEmail},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, apperr.CodeInvalidPassword},
		{"missing name", func(in *RegisterInput) { in.FirstName = "" }, apperr.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No routes: validation must fail before any upstream call.
			svc := newSvc(t, routingServer(t, nil), nil)
			in := valid
			tt.edit(&in)
			_, err := svc.Register(t.Context(), newReq(""), in)
			assertCode(t, err, tt.want)
		})
	}
}

func TestRegister_LoginIsEmail(t *testing.T) {
	srv := routingServer(t, []routeEntry{{
		method: http.MethodPost,
		suffix: "/customers",
		body:   map[string]any{"customerId": "c-9", "login": "jane@example.com", "email": "jane@example.com"},
		check: func(t *testing.T, _ *http.Request, body []byte) {
			var got struct {
				Customer struct {
					Login string `json:"login"`
					Email string `json:"email"`
				} `json:"customer"`
				Password string `json:"password"`
			}
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if got.Customer.Login != "jane@example.com" || got.Customer.Email != got.Customer.Login {
				t.Errorf("login and email must match: %+v", got.Customer)
			}
			if got.Password != "longenough" {
				t.Errorf("password not forwarded")
			}
		},
	}})
	svc := newSvc(t, srv, nil)

	email, err := svc.Register(t.Context(), newReq(""), RegisterInput{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", PhoneMobile: "555-0100", Password: "longenough",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if email != "jane@example.com" {
		t.Errorf("got %q", email)
	}
}

func TestRegister_LoginInUse(t *testing.T) {
	srv := routingServer(t, []routeEntry{{
		method: http.MethodPost,
		suffix: "/customers",
		status: http.StatusBadRequest,
		body: map[string]any{
			"type":  "https://api.commercecloud.salesforce.com/documentation/error/v1/errors/login-already-in-use",
			"title": "Login Already In Use",
		},
	}})
	svc := newSvc(t, srv, nil)

	_, err := svc.Register(t.Context(), newReq(""), RegisterInput{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", PhoneMobile: "555-0100", Password: "longenough",
	})
	assertCode(t, err, apperr.CodeLoginAlreadyExists)
}

func TestLogout_GuestBeforeRevoke(t *testing.T) {
	var steps []string
	srv := routingServer(t, []routeEntry{{
		method: http.MethodGet,
		suffix: "/oauth2/logout",
		body:   map[string]any{},
		check: func(t *testing.T, r *http.Request, _ []byte) {
			steps = append(steps, "revoke")
			if got := r.URL.Query().Get("refresh_token"); got != "shopper-rt" {
				t.Errorf("revoked %q", got)
			}
		},
	}})
	sessions := &fakeSessions{
		guestFn: func(identity.TokenStore) (identity.Identity, error) {
			steps = append(steps, "guest")
			return identity.Identity{AccessToken: "guest-at"}, nil
		},
	}
	svc := newSvc(t, srv, sessions)

	if err := svc.Logout(t.Context(), newReq("")); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(steps) != 2 || steps[0] != "guest" || steps[1] != "revoke" {
		t.Errorf("steps: %v", steps)
	}
}
