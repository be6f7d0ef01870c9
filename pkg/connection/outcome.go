package connection

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

// Outcome is how the sync client reacts to a finished request.
type Outcome int

const (
	// OutcomeSuccess means the status was one the operation accepts.
	OutcomeSuccess Outcome = iota
	// OutcomeAuthRejected is a 401 or 403. It ends the session.
	OutcomeAuthRejected
	// OutcomeTransient covers everything else: network errors, timeouts,
	// 5xx, other 4xx and unexpected 2xx. The session is kept.
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAuthRejected:
		return "auth_rejected"
	default:
		return "transient"
	}
}

// Classify maps a Do result to an Outcome. success lists the status codes
// the operation treats as success; when empty, 200 is assumed.
func Classify(resp *Response, err error, success ...int) Outcome {
	if err != nil || resp == nil {
		return OutcomeTransient
	}
	if IsAuthRejection(resp.StatusCode) {
		return OutcomeAuthRejected
	}
	if len(success) == 0 {
		success = []int{http.StatusOK}
	}
	for _, code := range success {
		if resp.StatusCode == code {
			return OutcomeSuccess
		}
	}
	return OutcomeTransient
}

// IsAuthRejection reports whether code invalidates the session.
func IsAuthRejection(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// StatusError describes a response whose status the operation did not accept.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap lets callers test the failure class with errors.Is.
func (e *StatusError) Unwrap() error {
	switch {
	case IsAuthRejection(e.StatusCode):
		return constants.ErrUnauthorized
	case e.StatusCode >= 500:
		return constants.ErrServerError
	default:
		return constants.ErrUnexpectedStatus
	}
}

// Err builds the error for a failed exchange, or nil when the outcome is
// success. err is the error Do returned, if any.
func Err(op string, resp *Response, err error, success ...int) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if Classify(resp, nil, success...) == OutcomeSuccess {
		return nil
	}
	if resp == nil {
		return fmt.Errorf("%s: %w", op, constants.ErrNetworkFailure)
	}
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(resp.Body))}
}

// Retryable reports whether a failed call is worth repeating. Network
// failures and server errors are; auth rejections and other 4xx are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, constants.ErrNetworkFailure) || errors.Is(err, constants.ErrServerError)
}
