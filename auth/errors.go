package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrCaptchaRequired is wrapped by [CaptchaChallengeError].
	ErrCaptchaRequired = errors.New("captcha required")
	// ErrCredentialsRejected is returned when the service refuses the
	// email and password.
	ErrCredentialsRejected = errors.New("credentials rejected")
	// ErrAuthService is wrapped by [ServiceError] for unexpected replies.
	ErrAuthService = errors.New("auth service error")
	// ErrNotUpgradable is returned when upgrading anything but a single-use
	// AuthSub token.
	ErrNotUpgradable = errors.New("token not upgradable")
	// ErrNotRevocable is returned when revoking a token that is not an
	// AuthSub token.
	ErrNotRevocable = errors.New("token not revocable")
	// ErrTokenUnusable is returned when stamping a revoked token or when a
	// token source fails.
	ErrTokenUnusable = errors.New("token unusable")
	// ErrNoToken is returned when a callback URL carries no token.
	ErrNoToken = errors.New("no token in callback")
	// ErrMalformedBlob is returned by UnmarshalToken.
	ErrMalformedBlob = errors.New("malformed token blob")
)

// CaptchaChallengeError is returned by the password exchange when the
// service wants the user to solve a CAPTCHA. Pass ID and the user's answer
// back as PasswordRequest.CaptchaToken and CaptchaAnswer.
type CaptchaChallengeError struct {
	ID       string
	ImageURL string
}

func (e *CaptchaChallengeError) Error() string {
	return fmt.Sprintf("%v: challenge %s, image %s", ErrCaptchaRequired, e.ID, e.ImageURL)
}

func (e *CaptchaChallengeError) Unwrap() error {
	return ErrCaptchaRequired
}

// ServiceError carries the status and reason of a failed auth call.
type ServiceError struct {
	StatusCode int
	Reason     string
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%v: %d %s, body: %s", e.Err, e.StatusCode, e.Reason, e.Body)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
