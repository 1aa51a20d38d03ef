// Package auth implements the GData credential lifecycle: password
// exchange (ClientLogin) with CAPTCHA challenges, the AuthSub web flow with
// single-use to session upgrade and revocation, OAuth 2.0 bearer tokens,
// and a scope-keyed token store.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/adamwoolhether/gdata/uri"
)

// Token stamps credentials onto outgoing requests.
type Token interface {
	// Authorize sets the request's Authorization header.
	Authorize(req *http.Request) error
	// Covers reports whether the token's scopes include target.
	Covers(target *uri.URI) bool
}

// Scopes is the set of URI prefixes a token authorizes. When All is set the
// token covers every target. The zero value covers nothing.
type Scopes struct {
	All  bool
	URIs []string
}

// AllScopes returns the universal scope.
func AllScopes() Scopes {
	return Scopes{All: true}
}

// ScopesOf returns a scope set for the given URI prefixes.
func ScopesOf(uris ...string) Scopes {
	return Scopes{URIs: uris}
}

// Covers reports whether any scope shares target's host and is a path
// prefix of target's path on a "/" boundary. Schemes and ports are ignored.
func (s Scopes) Covers(target *uri.URI) bool {
	if s.All {
		return true
	}
	if target == nil {
		return false
	}

	for _, raw := range s.URIs {
		scope, err := uri.Parse(raw)
		if err != nil {
			continue
		}
		if !strings.EqualFold(scope.Host, target.Host) {
			continue
		}
		if pathCovers(scope.Path, target.Path) {
			return true
		}
	}

	return false
}

func pathCovers(scope, target string) bool {
	if scope == "" || scope == target {
		return true
	}
	if !strings.HasPrefix(target, scope) {
		return false
	}

	return strings.HasSuffix(scope, "/") || target[len(scope)] == '/'
}

// /////////////////////////////////////////////////////////////////

// ClientLoginToken is obtained by exchanging an account's password.
type ClientLoginToken struct {
	Value string
	// AuthScheme prefixes the header value; "GoogleLogin" when empty.
	AuthScheme string
	Scopes     Scopes
}

func (t *ClientLoginToken) Authorize(req *http.Request) error {
	scheme := t.AuthScheme
	if scheme == "" {
		scheme = "GoogleLogin"
	}

	req.Header.Set("Authorization", scheme+" auth="+t.Value)
	return nil
}

func (t *ClientLoginToken) Covers(target *uri.URI) bool {
	return t.Scopes.Covers(target)
}

// AuthSubToken is the single-use token the AuthSub web flow returns to the
// application's callback. It can be upgraded to a session token.
type AuthSubToken struct {
	Value   string
	Scopes  Scopes
	revoked bool
}

func (t *AuthSubToken) Authorize(req *http.Request) error {
	return authSub(req, t.Value, t.revoked)
}

func (t *AuthSubToken) Covers(target *uri.URI) bool {
	return t.Scopes.Covers(target)
}

// Revoked reports whether the token was revoked.
func (t *AuthSubToken) Revoked() bool { return t.revoked }

func (t *AuthSubToken) markRevoked() { t.revoked = true }

// AuthSubSessionToken is a long-lived AuthSub token. It cannot be upgraded.
type AuthSubSessionToken struct {
	Value   string
	Scopes  Scopes
	revoked bool
}

func (t *AuthSubSessionToken) Authorize(req *http.Request) error {
	return authSub(req, t.Value, t.revoked)
}

func (t *AuthSubSessionToken) Covers(target *uri.URI) bool {
	return t.Scopes.Covers(target)
}

// Revoked reports whether the token was revoked.
func (t *AuthSubSessionToken) Revoked() bool { return t.revoked }

func (t *AuthSubSessionToken) markRevoked() { t.revoked = true }

func authSub(req *http.Request, value string, revoked bool) error {
	if revoked {
		return ErrTokenUnusable
	}

	req.Header.Set("Authorization", `AuthSub token="`+value+`"`)
	return nil
}

// revocable is implemented by the web flow tokens.
type revocable interface {
	Token
	markRevoked()
}

// AnonymousToken sends no credentials. The store returns it when no other
// token covers a target.
type AnonymousToken struct{}

// Anonymous is the shared anonymous token.
var Anonymous Token = AnonymousToken{}

func (AnonymousToken) Authorize(*http.Request) error { return nil }

// Covers is always false so an anonymous token never shadows a real one.
func (AnonymousToken) Covers(*uri.URI) bool { return false }

// OAuth2Token stamps a bearer token from an oauth2.TokenSource, refreshing
// through the source as it sees fit.
type OAuth2Token struct {
	Source oauth2.TokenSource
	Scopes Scopes
}

func (t *OAuth2Token) Authorize(req *http.Request) error {
	tok, err := t.Source.Token()
	if err != nil {
		return fmt.Errorf("%w: oauth2 token source: %w", ErrTokenUnusable, err)
	}

	tok.SetAuthHeader(req)
	return nil
}

func (t *OAuth2Token) Covers(target *uri.URI) bool {
	return t.Scopes.Covers(target)
}
