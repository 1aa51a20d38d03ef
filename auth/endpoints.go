package auth

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Default endpoints of the hosted accounts service.
const (
	DefaultClientLogin    = "https://www.google.com/accounts/ClientLogin"
	DefaultCaptchaBase    = "http://www.google.com/accounts/"
	DefaultAuthSubRequest = "https://www.google.com/accounts/AuthSubRequest"
	DefaultAuthSubSession = "https://www.google.com/accounts/AuthSubSessionToken"
	DefaultAuthSubRevoke  = "https://www.google.com/accounts/AuthSubRevokeToken"
)

// maxBodySize caps how much of an auth reply is read.
const maxBodySize = 16 << 10

// Endpoints locates the account service. Empty fields use the defaults.
type Endpoints struct {
	ClientLogin    string `toml:"client_login" validate:"omitempty,url"`
	CaptchaBase    string `toml:"captcha_base" validate:"omitempty,url"`
	AuthSubRequest string `toml:"authsub_request" validate:"omitempty,url"`
	AuthSubSession string `toml:"authsub_session" validate:"omitempty,url"`
	AuthSubRevoke  string `toml:"authsub_revoke" validate:"omitempty,url"`
}

// DefaultEndpoints returns the hosted service endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{}.WithDefaults()
}

// WithDefaults fills empty fields with the defaults.
func (e Endpoints) WithDefaults() Endpoints {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}

	fill(&e.ClientLogin, DefaultClientLogin)
	fill(&e.CaptchaBase, DefaultCaptchaBase)
	fill(&e.AuthSubRequest, DefaultAuthSubRequest)
	fill(&e.AuthSubSession, DefaultAuthSubSession)
	fill(&e.AuthSubRevoke, DefaultAuthSubRevoke)

	return e
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// reply is a read and closed auth response.
type reply struct {
	status int
	reason string
	body   string
	values map[string]string
}

func send(ctx context.Context, doer Doer, req *http.Request) (*reply, error) {
	resp, err := doer.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Default().Error("failed to close auth response body", "error", err)
		}
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	return &reply{
		status: resp.StatusCode,
		reason: http.StatusText(resp.StatusCode),
		body:   string(b),
		values: parseKeyValues(b),
	}, nil
}

func (r *reply) serviceError(err error) *ServiceError {
	reason := r.reason
	if msg := r.values["Error"]; msg != "" {
		reason = msg
	}

	return &ServiceError{StatusCode: r.status, Reason: reason, Body: r.body, Err: err}
}

// parseKeyValues reads a line-delimited key=value body.
func parseKeyValues(b []byte) map[string]string {
	values := make(map[string]string)

	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if ok {
			values[k] = v
		}
	}

	return values
}
