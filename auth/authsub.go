package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/adamwoolhether/gdata/internal/validate"
	"github.com/adamwoolhether/gdata/uri"
)

// DefaultScopesParam is the query parameter of the next URL that carries
// the requested scopes back to the application.
const DefaultScopesParam = "auth_sub_scopes"

// WebFlowRequest describes the AuthSub redirect the user's browser visits.
type WebFlowRequest struct {
	Next    string   `validate:"required,url"`
	Scopes  []string `validate:"required,min=1,dive,required"`
	Secure  bool
	Session bool
	// Domain is the hosted domain, "default" when empty.
	Domain string
	// ScopesParam names the next URL parameter that echoes the scopes,
	// DefaultScopesParam when empty.
	ScopesParam string
}

// AuthSubURL builds the URI that starts the AuthSub web flow. The scopes
// appear both as the scope parameter and inside the next URL, so the
// callback can recover them with TokenFromCallback.
func AuthSubURL(ep Endpoints, r WebFlowRequest) (*uri.URI, error) {
	if err := validate.Check(r); err != nil {
		return nil, fmt.Errorf("validating web flow request: %w", err)
	}

	ep = ep.WithDefaults()

	next, err := uri.Parse(r.Next)
	if err != nil {
		return nil, fmt.Errorf("parsing next url: %w", err)
	}

	u, err := uri.Parse(ep.AuthSubRequest)
	if err != nil {
		return nil, fmt.Errorf("parsing authsub endpoint: %w", err)
	}

	param := r.ScopesParam
	if param == "" {
		param = DefaultScopesParam
	}
	domain := r.Domain
	if domain == "" {
		domain = "default"
	}

	scope := strings.Join(r.Scopes, " ")
	next.SetQuery(param, scope)

	u.SetQuery("next", next.String())
	u.SetQuery("scope", scope)
	u.SetQuery("secure", flag(r.Secure))
	u.SetQuery("session", flag(r.Session))
	u.SetQuery("hd", domain)

	return u, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}

	return "0"
}

// TokenFromCallback extracts the single-use token and the echoed scopes
// from the URL the service redirected the user back to. An empty
// scopesParam means DefaultScopesParam.
func TokenFromCallback(callback, scopesParam string) (*AuthSubToken, error) {
	u, err := uri.Parse(callback)
	if err != nil {
		return nil, fmt.Errorf("parsing callback: %w", err)
	}

	value := u.QueryValue("token")
	if value == "" {
		return nil, ErrNoToken
	}

	if scopesParam == "" {
		scopesParam = DefaultScopesParam
	}

	var scopes Scopes
	if raw := u.QueryValue(scopesParam); raw != "" {
		scopes = ScopesOf(strings.Fields(raw)...)
	}

	return &AuthSubToken{Value: value, Scopes: scopes}, nil
}

// Upgrade exchanges a single-use AuthSub token for a session token with
// the same scopes.
func Upgrade(ctx context.Context, doer Doer, ep Endpoints, tok Token) (*AuthSubSessionToken, error) {
	single, ok := tok.(*AuthSubToken)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotUpgradable, tok)
	}

	rep, err := authorizedGet(ctx, doer, ep.WithDefaults().AuthSubSession, single)
	if err != nil {
		return nil, fmt.Errorf("upgrading token: %w", err)
	}

	if rep.status != http.StatusOK {
		return nil, rep.serviceError(ErrAuthService)
	}

	value := rep.values["Token"]
	if value == "" {
		return nil, rep.serviceError(ErrAuthService)
	}

	return &AuthSubSessionToken{Value: value, Scopes: single.Scopes}, nil
}

// Revoke invalidates an AuthSub token with the service and marks it
// revoked, after which Authorize fails with ErrTokenUnusable.
func Revoke(ctx context.Context, doer Doer, ep Endpoints, tok Token) error {
	rt, ok := tok.(revocable)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotRevocable, tok)
	}

	rep, err := authorizedGet(ctx, doer, ep.WithDefaults().AuthSubRevoke, rt)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	if rep.status != http.StatusOK {
		return rep.serviceError(ErrAuthService)
	}

	rt.markRevoked()
	return nil
}

func authorizedGet(ctx context.Context, doer Doer, endpoint string, tok Token) (*reply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	if err := tok.Authorize(req); err != nil {
		return nil, err
	}

	rep, err := send(ctx, doer, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthService, err)
	}

	return rep, nil
}
