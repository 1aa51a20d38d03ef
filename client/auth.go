package client

import (
	"context"
	"fmt"

	"github.com/adamwoolhether/gdata/auth"
	"github.com/adamwoolhether/gdata/uri"
)

// ClientLogin exchanges a password for a token and adds it to the store.
// Source defaults to the client's. On a [*auth.CaptchaChallengeError] show
// the image and call again with CaptchaToken and CaptchaAnswer set.
func (c *Client) ClientLogin(ctx context.Context, r auth.PasswordRequest) (*auth.ClientLoginToken, error) {
	if r.Source == "" {
		r.Source = c.cfg.Source
	}

	tok, err := auth.ExchangePassword(ctx, c.c, c.cfg.Endpoints, r)
	if err != nil {
		return nil, err
	}

	c.tokens.Add(tok)
	c.logger.Info("client login succeeded", "service", r.Service, "email", r.Email)

	return tok, nil
}

// AuthSubURL returns where to send a user to grant access.
func (c *Client) AuthSubURL(r auth.WebFlowRequest) (*uri.URI, error) {
	return auth.AuthSubURL(c.cfg.Endpoints, r)
}

// UpgradeToken trades a single-use AuthSub token for a session token,
// which replaces it in the store.
func (c *Client) UpgradeToken(ctx context.Context, tok auth.Token) (*auth.AuthSubSessionToken, error) {
	session, err := auth.Upgrade(ctx, c.c, c.cfg.Endpoints, tok)
	if err != nil {
		return nil, fmt.Errorf("upgrading token: %w", err)
	}

	c.tokens.Replace(tok, session)
	c.logger.Info("authsub token upgraded")

	return session, nil
}

// RevokeToken revokes an AuthSub token and drops it from the store.
func (c *Client) RevokeToken(ctx context.Context, tok auth.Token) error {
	if err := auth.Revoke(ctx, c.c, c.cfg.Endpoints, tok); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	c.tokens.Remove(tok)
	c.logger.Info("authsub token revoked")

	return nil
}
