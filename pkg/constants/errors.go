package constants

import "errors"

var (
	ErrNoBaseURL          = errors.New("base url not set")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrMalformedResponse  = errors.New("malformed server response")
	ErrMissingField       = errors.New("required field missing")
	ErrInvalidID          = errors.New("invalid id")
	ErrSessionChanged     = errors.New("session changed before the request completed")
	ErrAlreadyStarted     = errors.New("client already started")
)

// Transport failure classes. Only ErrUnauthorized ends a session.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNetworkFailure   = errors.New("network failure")
	ErrServerError      = errors.New("server error")
	ErrUnexpectedStatus = errors.New("unexpected status")
)
