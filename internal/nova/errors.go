package nova

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrTokenEndpointMismatch  = errors.New("token redirect did not target the authorized endpoint")
	ErrTokenExtractionFailed  = errors.New("access token not found in redirect URL")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrResponseNotAvailable   = errors.New("response not available")
	ErrInsufficientArguments  = errors.New("insufficient arguments")
	ErrEmployeeIDRequired     = errors.New("employee ID required: pass one or load the profile first")
	ErrUnexpectedShape        = errors.New("unexpected response shape")
	ErrSessionClosed          = errors.New("session logged out; create a new client to log in again")
	ErrAlreadyLoggedIn        = errors.New("credentials already submitted; create a new client to log in again")
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Resource   Resource
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s %s: status %d: %s", e.Resource, e.Method, e.URL, e.StatusCode, e.Body)
}

// LoginError describes a rejected credential submission.
type LoginError struct {
	URL        string // where the login redirects ended
	StatusCode int
	Reason     string // message scraped from the login page, if any
}

func (e *LoginError) Error() string {
	msg := fmt.Sprintf("%s: login ended at %s (status %d)", ErrInvalidCredentials, e.URL, e.StatusCode)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *LoginError) Unwrap() error {
	return ErrInvalidCredentials
}
