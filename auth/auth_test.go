package auth_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/oauth2"

	"github.com/adamwoolhether/gdata/auth"
	"github.com/adamwoolhether/gdata/internal/validate"
	"github.com/adamwoolhether/gdata/uri"
)

var ignoreRevoked = cmpopts.IgnoreUnexported(auth.AuthSubToken{}, auth.AuthSubSessionToken{})

func TestScopesCovers(t *testing.T) {
	scopes := auth.ScopesOf("http://example.net/scope1", "https://Docs.Example.com/feeds/")

	testCases := map[string]struct {
		target string
		exp    bool
	}{
		"exact":           {target: "http://example.net/scope1", exp: true},
		"below":           {target: "http://example.net/scope1/private/full", exp: true},
		"boundary":        {target: "http://example.net/scope10", exp: false},
		"otherScheme":     {target: "https://example.net/scope1/x", exp: true},
		"otherPort":       {target: "http://example.net:8080/scope1", exp: true},
		"hostCase":        {target: "http://docs.example.COM/feeds/documents", exp: true},
		"trailingSlash":   {target: "http://docs.example.com/feeds/", exp: true},
		"otherHost":       {target: "http://example.org/scope1", exp: false},
		"parentOfScope":   {target: "http://example.net/", exp: false},
		"relativeNoMatch": {target: "/scope1", exp: false},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := scopes.Covers(uri.MustParse(tc.target)); got != tc.exp {
				t.Errorf("expected covers(%s) = %v, got %v", tc.target, tc.exp, got)
			}
		})
	}

	if !auth.AllScopes().Covers(uri.MustParse("http://anything.example/")) {
		t.Error("expected universal scope to cover every target")
	}
	if (auth.Scopes{}).Covers(uri.MustParse("http://anything.example/")) {
		t.Error("expected empty scopes to cover nothing")
	}
	if !auth.ScopesOf("http://example.net").Covers(uri.MustParse("http://example.net/any/path")) {
		t.Error("expected host-only scope to cover every path on the host")
	}
}

func TestStoreFind(t *testing.T) {
	calendar := &auth.ClientLoginToken{Value: "cal", Scopes: auth.ScopesOf("http://www.google.com/calendar/feeds")}
	broad := &auth.ClientLoginToken{Value: "broad", Scopes: auth.ScopesOf("http://www.google.com/")}
	session := &auth.AuthSubSessionToken{Value: "docs", Scopes: auth.ScopesOf("http://docs.google.com/feeds")}

	store := auth.NewStore(broad, calendar, session)

	testCases := map[string]struct {
		target string
		exp    auth.Token
	}{
		"firstAddedWins": {target: "http://www.google.com/calendar/feeds/default", exp: broad},
		"otherHost":      {target: "http://docs.google.com/feeds/documents", exp: session},
		"noMatch":        {target: "http://example.com/", exp: auth.Anonymous},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := store.Find(uri.MustParse(tc.target)); got != tc.exp {
				t.Errorf("expected %v, got %v", tc.exp, got)
			}
		})
	}

	if !store.Remove(broad) {
		t.Fatal("expected broad token to be removed")
	}
	if store.Remove(broad) {
		t.Error("expected second removal to report false")
	}

	if got := store.Find(uri.MustParse("http://www.google.com/calendar/feeds/default")); got != calendar {
		t.Errorf("expected calendar token after removal, got %v", got)
	}
}

func TestStoreFindTotal(t *testing.T) {
	stores := []*auth.Store{
		nil,
		auth.NewStore(),
		auth.NewStore(auth.Anonymous, nil),
		auth.NewStore(&auth.AuthSubToken{Value: "x"}),
		auth.NewStore(&auth.ClientLoginToken{Value: "y", Scopes: auth.AllScopes()}),
	}
	targets := []*uri.URI{nil, {}, uri.MustParse("/relative"), uri.MustParse("https://h.example:1/a/b?c=d")}

	for i, s := range stores {
		for _, target := range targets {
			if tok := s.Find(target); tok == nil {
				t.Errorf("store %d returned nil token for %v", i, target)
			}
		}
	}
}

func TestStoreReplace(t *testing.T) {
	old := &auth.AuthSubToken{Value: "a", Scopes: auth.AllScopes()}
	other := &auth.ClientLoginToken{Value: "b", Scopes: auth.AllScopes()}
	upgraded := &auth.AuthSubSessionToken{Value: "c", Scopes: auth.AllScopes()}

	store := auth.NewStore(old, other)
	store.Replace(old, upgraded)

	if diff := cmp.Diff([]auth.Token{upgraded, other}, store.Tokens(), ignoreRevoked); diff != "" {
		t.Errorf("unexpected tokens (-want +got):\n%s", diff)
	}
}

func TestAuthorize(t *testing.T) {
	testCases := map[string]struct {
		tok auth.Token
		exp string
	}{
		"clientLogin":   {tok: &auth.ClientLoginToken{Value: "abc"}, exp: "GoogleLogin auth=abc"},
		"customScheme":  {tok: &auth.ClientLoginToken{Value: "abc", AuthScheme: "GoogleLoginX"}, exp: "GoogleLoginX auth=abc"},
		"authSub":       {tok: &auth.AuthSubToken{Value: "s1"}, exp: `AuthSub token="s1"`},
		"authSubSesion": {tok: &auth.AuthSubSessionToken{Value: "s2"}, exp: `AuthSub token="s2"`},
		"anonymous":     {tok: auth.Anonymous, exp: ""},
		"oauth2":        {tok: &auth.OAuth2Token{Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "ya29", TokenType: "Bearer"})}, exp: "Bearer ya29"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
			if err := tc.tok.Authorize(req); err != nil {
				t.Fatalf("failed to authorize: %v", err)
			}

			if got := req.Header.Get("Authorization"); got != tc.exp {
				t.Errorf("expected header %q, got %q", tc.exp, got)
			}
		})
	}
}

// loginServer scripts the ClientLogin endpoint.
func loginServer(t *testing.T, status int, body string, seen *http.Request) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if seen != nil {
			*seen = *r
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestExchangePassword(t *testing.T) {
	req := auth.PasswordRequest{Email: "jo@gmail.com", Password: "secret", Service: "cl", Source: "gdata-test"}

	testCases := map[string]struct {
		status int
		body   string
		check  func(t *testing.T, tok *auth.ClientLoginToken, err error)
	}{
		"success": {
			status: http.StatusOK,
			body:   "SID=sid\nLSID=lsid\nAuth=DQAAAGgA\n",
			check: func(t *testing.T, tok *auth.ClientLoginToken, err error) {
				if err != nil {
					t.Fatalf("failed to exchange: %v", err)
				}
				if tok.Value != "DQAAAGgA" || !tok.Scopes.All {
					t.Errorf("unexpected token %+v", tok)
				}
			},
		},
		"captcha": {
			status: http.StatusForbidden,
			body:   "Error=CaptchaRequired\nCaptchaToken=Hi...N\nCaptchaUrl=Captcha?ctoken=Hi...N\n",
			check: func(t *testing.T, _ *auth.ClientLoginToken, err error) {
				var challenge *auth.CaptchaChallengeError
				if !errors.As(err, &challenge) {
					t.Fatalf("expected CaptchaChallengeError, got %v", err)
				}
				exp := &auth.CaptchaChallengeError{ID: "Hi...N", ImageURL: "http://www.google.com/accounts/Captcha?ctoken=Hi...N"}
				if diff := cmp.Diff(exp, challenge); diff != "" {
					t.Errorf("unexpected challenge (-want +got):\n%s", diff)
				}
				if !errors.Is(err, auth.ErrCaptchaRequired) {
					t.Error("expected error to wrap ErrCaptchaRequired")
				}
			},
		},
		"badAuthentication": {
			status: http.StatusForbidden,
			body:   "Error=BadAuthentication\n",
			check: func(t *testing.T, _ *auth.ClientLoginToken, err error) {
				if !errors.Is(err, auth.ErrCredentialsRejected) {
					t.Fatalf("expected ErrCredentialsRejected, got %v", err)
				}
				var se *auth.ServiceError
				if !errors.As(err, &se) || se.Reason != "BadAuthentication" {
					t.Errorf("expected server reason to be carried, got %v", err)
				}
			},
		},
		"serviceDisabled": {
			status: http.StatusForbidden,
			body:   "Error=ServiceDisabled\n",
			check: func(t *testing.T, _ *auth.ClientLoginToken, err error) {
				if !errors.Is(err, auth.ErrAuthService) {
					t.Fatalf("expected ErrAuthService, got %v", err)
				}
			},
		},
		"serverError": {
			status: http.StatusInternalServerError,
			body:   "oops",
			check: func(t *testing.T, _ *auth.ClientLoginToken, err error) {
				var se *auth.ServiceError
				if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
					t.Fatalf("expected ServiceError with status 500, got %v", err)
				}
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			srv := loginServer(t, tc.status, tc.body, nil)
			ep := auth.Endpoints{ClientLogin: srv.URL + "/accounts/ClientLogin"}

			tok, err := auth.ExchangePassword(context.Background(), srv.Client(), ep, req)
			tc.check(t, tok, err)
		})
	}
}

func TestExchangePasswordForm(t *testing.T) {
	var seen http.Request
	srv := loginServer(t, http.StatusOK, "Auth=x\n", &seen)
	ep := auth.Endpoints{ClientLogin: srv.URL}

	req := auth.PasswordRequest{
		Email:         "jo@gmail.com",
		Password:      "secret",
		Service:       "wise",
		Source:        "gdata-test",
		CaptchaToken:  "Hi...N",
		CaptchaAnswer: "brinmar",
	}

	if _, err := auth.ExchangePassword(context.Background(), srv.Client(), ep, req); err != nil {
		t.Fatalf("failed to exchange: %v", err)
	}

	exp := map[string]string{
		"Email":        "jo@gmail.com",
		"Passwd":       "secret",
		"accountType":  "HOSTED_OR_GOOGLE",
		"service":      "wise",
		"source":       "gdata-test",
		"logintoken":   "Hi...N",
		"logincaptcha": "brinmar",
	}

	got := make(map[string]string)
	for k := range seen.PostForm {
		got[k] = seen.PostForm.Get(k)
	}

	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("unexpected form (-want +got):\n%s", diff)
	}
}

func TestExchangePasswordValidation(t *testing.T) {
	_, err := auth.ExchangePassword(context.Background(), http.DefaultClient, auth.Endpoints{}, auth.PasswordRequest{Email: "jo@gmail.com"})

	var fe validate.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected field errors, got %v", err)
	}

	if diff := cmp.Diff([]string{"Passwd", "service", "source"}, fe.Fields()); diff != "" {
		t.Errorf("unexpected fields (-want +got):\n%s", diff)
	}
}

func TestAuthSubURL(t *testing.T) {
	u, err := auth.AuthSubURL(auth.Endpoints{}, auth.WebFlowRequest{
		Next:    "http://example.com/",
		Scopes:  []string{"http://example.net/scope1"},
		Secure:  false,
		Session: true,
		Domain:  "default",
	})
	if err != nil {
		t.Fatalf("failed to build url: %v", err)
	}

	if got := u.Scheme + "://" + u.Host + u.Path; got != auth.DefaultAuthSubRequest {
		t.Errorf("expected endpoint %q, got %q", auth.DefaultAuthSubRequest, got)
	}

	exp := map[string]string{
		"secure":  "0",
		"session": "1",
		"scope":   "http://example.net/scope1",
		"hd":      "default",
	}
	for k, v := range exp {
		if got := u.QueryValue(k); got != v {
			t.Errorf("expected %s=%q, got %q", k, v, got)
		}
	}

	next, err := uri.Parse(u.QueryValue("next"))
	if err != nil {
		t.Fatalf("failed to parse next: %v", err)
	}
	if got := next.QueryValue(auth.DefaultScopesParam); got != "http://example.net/scope1" {
		t.Errorf("expected scopes in next url, got %q", got)
	}

	// The rendered form must survive a full parse round trip.
	again, err := uri.Parse(u.String())
	if err != nil {
		t.Fatalf("failed to reparse: %v", err)
	}
	if diff := cmp.Diff(u, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenFromCallback(t *testing.T) {
	tok, err := auth.TokenFromCallback("http://x/?token=123abc", "")
	if err != nil {
		t.Fatalf("failed to read callback: %v", err)
	}
	if tok.Value != "123abc" {
		t.Errorf("expected token 123abc, got %q", tok.Value)
	}

	tok, err = auth.TokenFromCallback("http://example.com/?token=t&my_scopes=http%3A%2F%2Fa.example%2F+http%3A%2F%2Fb.example%2Ff", "my_scopes")
	if err != nil {
		t.Fatalf("failed to read callback: %v", err)
	}
	if diff := cmp.Diff(auth.ScopesOf("http://a.example/", "http://b.example/f"), tok.Scopes); diff != "" {
		t.Errorf("unexpected scopes (-want +got):\n%s", diff)
	}

	if _, err := auth.TokenFromCallback("http://x/?nope=1", ""); !errors.Is(err, auth.ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}

func authSubServer(t *testing.T) (*httptest.Server, auth.Endpoints) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/AuthSubSessionToken", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != `AuthSub token="single"` {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, "Token=session\nExpiration=20061004T123456Z\n")
	})
	mux.HandleFunc("/accounts/AuthSubRevokeToken", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusForbidden)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, auth.Endpoints{
		AuthSubSession: srv.URL + "/accounts/AuthSubSessionToken",
		AuthSubRevoke:  srv.URL + "/accounts/AuthSubRevokeToken",
	}
}

func TestUpgradeAndRevoke(t *testing.T) {
	srv, ep := authSubServer(t)
	ctx := context.Background()

	single := &auth.AuthSubToken{Value: "single", Scopes: auth.ScopesOf("http://example.net/scope1")}

	session, err := auth.Upgrade(ctx, srv.Client(), ep, single)
	if err != nil {
		t.Fatalf("failed to upgrade: %v", err)
	}

	exp := &auth.AuthSubSessionToken{Value: "session", Scopes: single.Scopes}
	if diff := cmp.Diff(exp, session, ignoreRevoked); diff != "" {
		t.Errorf("unexpected session token (-want +got):\n%s", diff)
	}

	if _, err := auth.Upgrade(ctx, srv.Client(), ep, session); !errors.Is(err, auth.ErrNotUpgradable) {
		t.Errorf("expected ErrNotUpgradable for a session token, got %v", err)
	}

	if err := auth.Revoke(ctx, srv.Client(), ep, session); err != nil {
		t.Fatalf("failed to revoke: %v", err)
	}
	if !session.Revoked() {
		t.Error("expected token to be marked revoked")
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.net/scope1", nil)
	if err := session.Authorize(req); !errors.Is(err, auth.ErrTokenUnusable) {
		t.Errorf("expected ErrTokenUnusable stamping a revoked token, got %v", err)
	}

	if err := auth.Revoke(ctx, srv.Client(), ep, &auth.ClientLoginToken{Value: "x"}); !errors.Is(err, auth.ErrNotRevocable) {
		t.Errorf("expected ErrNotRevocable, got %v", err)
	}
}

func TestUpgradeRejected(t *testing.T) {
	srv, ep := authSubServer(t)

	_, err := auth.Upgrade(context.Background(), srv.Client(), ep, &auth.AuthSubToken{Value: "forged"})
	var se *auth.ServiceError
	if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 ServiceError, got %v", err)
	}
}

func TestTokenBlob(t *testing.T) {
	tokens := []auth.Token{
		&auth.ClientLoginToken{Value: "DQA|AGgA", AuthScheme: "GoogleLogin", Scopes: auth.AllScopes()},
		&auth.AuthSubToken{Value: "single", Scopes: auth.ScopesOf("http://example.net/a b", "http://example.net/c")},
		&auth.AuthSubSessionToken{Value: "session"},
		auth.Anonymous,
	}

	for _, tok := range tokens {
		t.Run(fmt.Sprintf("%T", tok), func(t *testing.T) {
			blob, err := auth.MarshalToken(tok)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}

			got, err := auth.UnmarshalToken(blob)
			if err != nil {
				t.Fatalf("failed to unmarshal %q: %v", blob, err)
			}

			if diff := cmp.Diff(tok, got, ignoreRevoked, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("blob round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := auth.MarshalToken(&auth.OAuth2Token{}); !errors.Is(err, auth.ErrUnsupportedToken) {
		t.Errorf("expected ErrUnsupportedToken, got %v", err)
	}
	if _, err := auth.UnmarshalToken("9z|x"); !errors.Is(err, auth.ErrMalformedBlob) {
		t.Errorf("expected ErrMalformedBlob, got %v", err)
	}
}
