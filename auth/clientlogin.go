package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/adamwoolhether/gdata/internal/validate"
)

// Account types accepted by ClientLogin.
const (
	AccountHostedOrGoogle = "HOSTED_OR_GOOGLE"
	AccountGoogle         = "GOOGLE"
	AccountHosted         = "HOSTED"
)

// PasswordRequest is a ClientLogin exchange. Service names the GData
// service ("cl", "wise", "cp", ...) and Source identifies the application.
type PasswordRequest struct {
	Email         string `form:"Email" validate:"required"`
	Password      string `form:"Passwd" validate:"required"`
	Service       string `form:"service" validate:"required"`
	Source        string `form:"source" validate:"required"`
	AccountType   string `form:"accountType" validate:"omitempty,oneof=HOSTED_OR_GOOGLE GOOGLE HOSTED"`
	CaptchaToken  string `form:"logintoken" validate:"required_with=CaptchaAnswer"`
	CaptchaAnswer string `form:"logincaptcha" validate:"required_with=CaptchaToken"`

	// Scopes of the returned token; the universal scope when empty.
	Scopes Scopes `form:"-"`
}

func (r PasswordRequest) form() url.Values {
	accountType := r.AccountType
	if accountType == "" {
		accountType = AccountHostedOrGoogle
	}

	form := url.Values{
		"Email":       {r.Email},
		"Passwd":      {r.Password},
		"accountType": {accountType},
		"service":     {r.Service},
		"source":      {r.Source},
	}

	if r.CaptchaToken != "" {
		form.Set("logintoken", r.CaptchaToken)
		form.Set("logincaptcha", r.CaptchaAnswer)
	}

	return form
}

// ExchangePassword trades an email and password for a ClientLogin token.
//
// A 403 asking for a CAPTCHA yields a [*CaptchaChallengeError] whose image
// URL is resolved against the endpoints' CAPTCHA base. A 403 for bad
// credentials yields an error wrapping [ErrCredentialsRejected]; any other
// failure wraps [ErrAuthService].
func ExchangePassword(ctx context.Context, doer Doer, ep Endpoints, r PasswordRequest) (*ClientLoginToken, error) {
	if err := validate.Check(r); err != nil {
		return nil, fmt.Errorf("validating password request: %w", err)
	}

	ep = ep.WithDefaults()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.ClientLogin, strings.NewReader(r.form().Encode()))
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rep, err := send(ctx, doer, req)
	if err != nil {
		return nil, fmt.Errorf("%w: client login: %w", ErrAuthService, err)
	}

	switch {
	case rep.status == http.StatusOK:
		value := rep.values["Auth"]
		if value == "" {
			return nil, rep.serviceError(ErrAuthService)
		}

		scopes := r.Scopes
		if !scopes.All && len(scopes.URIs) == 0 {
			scopes = AllScopes()
		}

		return &ClientLoginToken{Value: value, Scopes: scopes}, nil

	case rep.status == http.StatusForbidden && rep.values["Error"] == "CaptchaRequired":
		return nil, &CaptchaChallengeError{
			ID:       rep.values["CaptchaToken"],
			ImageURL: captchaURL(ep.CaptchaBase, rep.values["CaptchaUrl"]),
		}

	case rep.status == http.StatusForbidden && rep.values["Error"] == "BadAuthentication":
		return nil, rep.serviceError(ErrCredentialsRejected)
	}

	return nil, rep.serviceError(ErrAuthService)
}

func captchaURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	return base + path
}
