package domain

import "fmt"

// AuthCode is the short failure tag carried in error payloads.
type AuthCode string

const (
	CodeTokensExpired   AuthCode = "TOKENS_EXPIRED"
	CodeAccountBlocked  AuthCode = "ACCOUNT_BLOCKED"
	CodeBadCredentials  AuthCode = "BAD_CREDENTIALS"
	CodeNotEnoughRights AuthCode = "NOT_ENOUGH_RIGHTS"
	CodeTooManyAttempts AuthCode = "TOO_MANY_ATTEMPTS"
)

var authMessages = map[AuthCode]string{
	CodeTokensExpired:   "Tokens expired. You need to authorize",
	CodeAccountBlocked:  "Your account has been blocked",
	CodeBadCredentials:  "Invalid credentials",
	CodeNotEnoughRights: "Not enough rights for this action",
	CodeTooManyAttempts: "Too many failed login attempts, try again later",
}

// AuthError is an authentication or authorization failure. It is a plain value:
// nothing in the core panics or retries on it.
type AuthError struct {
	Code    AuthCode
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *AuthError with the same code, so errors.Is(err, ErrTokensExpired)
// works on wrapped values.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code
}

// NewAuthError builds an AuthError with the canonical message for code.
func NewAuthError(code AuthCode) *AuthError {
	return &AuthError{Code: code, Message: authMessages[code]}
}

var (
	ErrTokensExpired   = NewAuthError(CodeTokensExpired)
	ErrAccountBlocked  = NewAuthError(CodeAccountBlocked)
	ErrBadCredentials  = NewAuthError(CodeBadCredentials)
	ErrNotEnoughRights = NewAuthError(CodeNotEnoughRights)
	ErrTooManyAttempts = NewAuthError(CodeTooManyAttempts)
)
