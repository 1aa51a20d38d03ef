package gdatatest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

type tokenKind int

const (
	tokenLogin tokenKind = iota + 1
	tokenSingleUse
	tokenSession
)

type account struct {
	password string
	captcha  string
}

func (s *Server) issue(kind tokenKind) string {
	value := strings.ReplaceAll(uuid.NewString(), "-", "")

	s.mu.Lock()
	s.tokens[value] = kind
	s.mu.Unlock()

	return value
}

// bearer returns the token value of an Authorization header in either the
// ClientLogin or the AuthSub form.
func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")

	if v, ok := strings.CutPrefix(h, "GoogleLogin auth="); ok {
		return v
	}
	if v, ok := strings.CutPrefix(h, "AuthSub token="); ok {
		return strings.Trim(v, `"`)
	}

	return ""
}

func (s *Server) tokenOf(r *http.Request) (string, tokenKind) {
	value := bearer(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	return value, s.tokens[value]
}

func (s *Server) clientLogin(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return fail(http.StatusBadRequest, "parsing form: %v", err)
	}

	email := r.PostForm.Get("Email")

	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()

	if !ok || acct.password != r.PostForm.Get("Passwd") || r.PostForm.Get("service") == "" {
		return respondText(ctx, w, http.StatusForbidden, "Error=BadAuthentication\n")
	}

	if acct.captcha != "" {
		ctoken := r.PostForm.Get("logintoken")

		s.mu.Lock()
		issuedFor, known := s.captchas[ctoken]
		delete(s.captchas, ctoken)
		s.mu.Unlock()

		if !known || issuedFor != email || r.PostForm.Get("logincaptcha") != acct.captcha {
			ctoken = uuid.NewString()

			s.mu.Lock()
			s.captchas[ctoken] = email
			s.mu.Unlock()

			body := fmt.Sprintf("Error=CaptchaRequired\nCaptchaToken=%s\nCaptchaUrl=Captcha?ctoken=%s\n", ctoken, ctoken)
			return respondText(ctx, w, http.StatusForbidden, body)
		}
	}

	body := fmt.Sprintf("SID=%s\nLSID=%s\nAuth=%s\n", uuid.NewString(), uuid.NewString(), s.issue(tokenLogin))

	return respondText(ctx, w, http.StatusOK, body)
}

// authSubRequest stands in for the grant page: it approves at once and
// sends the browser back to next with a single-use token.
func (s *Server) authSubRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	if q.Get("next") == "" || q.Get("scope") == "" {
		return fail(http.StatusBadRequest, "next and scope are required")
	}

	next, err := url.Parse(q.Get("next"))
	if err != nil {
		return fail(http.StatusBadRequest, "parsing next: %v", err)
	}

	nq := next.Query()
	nq.Set("token", s.issue(tokenSingleUse))
	next.RawQuery = nq.Encode()

	w.Header().Set("Location", next.String())

	return respondEmpty(ctx, w, http.StatusFound)
}

func (s *Server) authSubSession(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	value, kind := s.tokenOf(r)
	if kind != tokenSingleUse {
		return respondText(ctx, w, http.StatusForbidden, "Error=InvalidToken\n")
	}

	s.mu.Lock()
	delete(s.tokens, value)
	s.mu.Unlock()

	return respondText(ctx, w, http.StatusOK, "Token="+s.issue(tokenSession)+"\n")
}

func (s *Server) authSubRevoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	value, kind := s.tokenOf(r)
	if kind != tokenSingleUse && kind != tokenSession {
		return respondText(ctx, w, http.StatusForbidden, "Error=InvalidToken\n")
	}

	s.mu.Lock()
	delete(s.tokens, value)
	s.mu.Unlock()

	return respondEmpty(ctx, w, http.StatusOK)
}

// guard applies the session redirect and the token check to feed routes.
func (s *Server) guard(next handler) handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if s.sessionRedirect && r.URL.Query().Get("gsessionid") == "" {
			u := *r.URL
			q := u.Query()
			q.Set("gsessionid", uuid.NewString())
			u.RawQuery = q.Encode()
			u.Scheme, u.Host = "http", r.Host

			w.Header().Set("Location", u.String())
			return respondEmpty(ctx, w, http.StatusFound)
		}

		if s.authRequired {
			if _, kind := s.tokenOf(r); kind == 0 {
				return fail(http.StatusUnauthorized, "Token invalid")
			}
		}

		return next(ctx, w, r)
	}
}
