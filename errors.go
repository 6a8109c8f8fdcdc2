package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidToken marks any failed token verification: not found,
	// already used, or expired. Deliberately conflated so callers cannot
	// leak which one it was.
	TextCodeInvalidToken = "auth_invalid_token"
	// TextCodeDeliveryFailed marks a magic-link email that could not be sent
	TextCodeDeliveryFailed = "auth_delivery_failed"
	// TextCodeAccessDenied marks a privilege check with no active grant
	TextCodeAccessDenied = "auth_access_denied"
	// TextCodeStoreUnavailable marks a transient store failure, retryable
	// by the caller
	TextCodeStoreUnavailable = "auth_store_unavailable"
	// TextCodeSessionExpired marks an expired session token
	TextCodeSessionExpired = "auth_session_expired"
	// TextCodeSessionMalformed marks a session token we could not decode
	TextCodeSessionMalformed = "auth_session_malformed"
)

// InvalidTokenMessage is the only detail user-facing surfaces may show for
// a failed verification.
const InvalidTokenMessage = "invalid or expired sign-in token"

// AccessDeniedMessage is the generic privilege failure text; missing and
// revoked grants read the same.
const AccessDeniedMessage = "administrator access denied"

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrSessionExpired is the error for expired session tokens
var ErrSessionExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeSessionExpired)

// ErrSessionMalformed is the error for session tokens we cannot decode
var ErrSessionMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeSessionMalformed)

// NewInvalidTokenError builds the single failure every rejected
// verification returns
func NewInvalidTokenError() *goerrors.Error {
	return goerrors.New(InvalidTokenMessage, goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized).
		WithTextCode(TextCodeInvalidToken)
}

// NewDeliveryFailedError wraps a mailer failure so issuance can be reported
// distinctly from token or store problems
func NewDeliveryFailedError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "could not deliver sign-in email").
		WithTextCode(TextCodeDeliveryFailed)
}

// NewAccessDeniedError builds the generic privilege failure
func NewAccessDeniedError() *goerrors.Error {
	return goerrors.New(AccessDeniedMessage, goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(TextCodeAccessDenied)
}

// NewStoreUnavailableError wraps a transient store failure; it must stay
// distinguishable from business failures so callers can retry or degrade
func NewStoreUnavailableError(err error, msg string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, msg).
		WithTextCode(TextCodeStoreUnavailable)
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

// IsInvalidToken checks for the conflated verification failure
func IsInvalidToken(err error) bool {
	return hasTextCode(err, TextCodeInvalidToken)
}

// IsDeliveryFailed checks for magic-link delivery failures
func IsDeliveryFailed(err error) bool {
	return hasTextCode(err, TextCodeDeliveryFailed)
}

// IsAccessDenied checks for failed privilege verifications
func IsAccessDenied(err error) bool {
	return hasTextCode(err, TextCodeAccessDenied)
}

// IsStoreUnavailable checks for transient store failures
func IsStoreUnavailable(err error) bool {
	return hasTextCode(err, TextCodeStoreUnavailable)
}

// IsRetryable reports whether the caller may retry the operation. The core
// itself never retries; verification and privilege checks are single
// attempt and fail closed.
func IsRetryable(err error) bool {
	return IsStoreUnavailable(err)
}
