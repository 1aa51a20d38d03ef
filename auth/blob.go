package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnsupportedToken is returned when marshaling a token variant that has
// no blob form, such as an OAuth2 token.
var ErrUnsupportedToken = errors.New("token cannot be serialized")

const (
	blobClientLogin = "1c"
	blobAuthSub     = "1a"
	blobSession     = "1s"
	blobAnonymous   = "1n"
	blobAllScopes   = "*"
)

// MarshalToken encodes a token as a versioned, "|"-delimited string
// suitable for persisting between runs.
func MarshalToken(t Token) (string, error) {
	var fields []string
	var scopes Scopes

	switch tok := t.(type) {
	case *ClientLoginToken:
		fields = []string{blobClientLogin, tok.AuthScheme, tok.Value}
		scopes = tok.Scopes
	case *AuthSubToken:
		if tok.revoked {
			return "", ErrTokenUnusable
		}
		fields = []string{blobAuthSub, tok.Value}
		scopes = tok.Scopes
	case *AuthSubSessionToken:
		if tok.revoked {
			return "", ErrTokenUnusable
		}
		fields = []string{blobSession, tok.Value}
		scopes = tok.Scopes
	case AnonymousToken:
		return blobAnonymous, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedToken, t)
	}

	if scopes.All {
		fields = append(fields, blobAllScopes)
	}
	fields = append(fields, scopes.URIs...)

	for i := 1; i < len(fields); i++ {
		fields[i] = url.QueryEscape(fields[i])
	}

	return strings.Join(fields, "|"), nil
}

// UnmarshalToken decodes a string produced by MarshalToken.
func UnmarshalToken(blob string) (Token, error) {
	fields := strings.Split(blob, "|")
	for i := 1; i < len(fields); i++ {
		v, err := url.QueryUnescape(fields[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedBlob, err)
		}
		fields[i] = v
	}

	switch fields[0] {
	case blobAnonymous:
		return Anonymous, nil

	case blobClientLogin:
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: client login blob needs scheme and value", ErrMalformedBlob)
		}
		return &ClientLoginToken{AuthScheme: fields[1], Value: fields[2], Scopes: scopesFromBlob(fields[3:])}, nil

	case blobAuthSub, blobSession:
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: authsub blob needs a value", ErrMalformedBlob)
		}
		scopes := scopesFromBlob(fields[2:])
		if fields[0] == blobSession {
			return &AuthSubSessionToken{Value: fields[1], Scopes: scopes}, nil
		}
		return &AuthSubToken{Value: fields[1], Scopes: scopes}, nil
	}

	return nil, fmt.Errorf("%w: unknown version %q", ErrMalformedBlob, fields[0])
}

func scopesFromBlob(fields []string) Scopes {
	var s Scopes
	for _, f := range fields {
		if f == blobAllScopes {
			s.All = true
			continue
		}
		s.URIs = append(s.URIs, f)
	}

	return s
}
