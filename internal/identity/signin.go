// ABOUTME: Sign-in failure variant carrying the identity provider's error code
// ABOUTME: Converts OAuth exchange and user lookup failures into codes at the boundary

package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/2389/popcode-gateway/internal/github"
)

// Provider codes carried by SignInError.
const (
	CodePopupClosed   = "popup-closed-by-user"
	CodeNetworkFailed = "network-request-failed"
	CodeInternalError = "internal-error"
	oauthAccessDenied = "access_denied"
)

// SignInError is the failure of an interactive sign-in. Err is nil when the
// provider reported only a code.
type SignInError struct {
	Code string
	Err  error
}

func (e *SignInError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sign-in failed (%s): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("sign-in failed (%s)", e.Code)
}

func (e *SignInError) Unwrap() error { return e.Err }

// SignInCode returns the provider code of err, or "" when err is not a
// *SignInError.
func SignInCode(err error) string {
	var se *SignInError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// exchangeError converts a failed OAuth code exchange. The token endpoint
// answering with an error is internal; no answer at all is a network failure.
func exchangeError(err error) *SignInError {
	var re *oauth2.RetrieveError
	switch {
	case errors.As(err, &re):
		return &SignInError{Code: CodeInternalError, Err: err}
	case errors.Is(err, context.Canceled):
		return &SignInError{Code: CodeInternalError, Err: err}
	default:
		return &SignInError{Code: CodeNetworkFailed, Err: err}
	}
}

// lookupError converts a failed user lookup.
func lookupError(err error) *SignInError {
	if github.IsTransient(err) {
		return &SignInError{Code: CodeNetworkFailed, Err: err}
	}
	return &SignInError{Code: CodeInternalError, Err: err}
}
