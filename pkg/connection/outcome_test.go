package connection

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		resp    *Response
		err     error
		success []int
		want    Outcome
	}{
		{"200 default", &Response{StatusCode: 200}, nil, nil, OutcomeSuccess},
		{"201 when 201 expected", &Response{StatusCode: 201}, nil, []int{201}, OutcomeSuccess},
		{"200 when 201 expected", &Response{StatusCode: 200}, nil, []int{201}, OutcomeTransient},
		{"204 accepted for delete", &Response{StatusCode: 204}, nil, []int{200, 204}, OutcomeSuccess},
		{"401", &Response{StatusCode: 401}, nil, nil, OutcomeAuthRejected},
		{"403 even if listed", &Response{StatusCode: 403}, nil, []int{403}, OutcomeAuthRejected},
		{"404", &Response{StatusCode: 404}, nil, nil, OutcomeTransient},
		{"500", &Response{StatusCode: 500}, nil, nil, OutcomeTransient},
		{"network", nil, constants.ErrNetworkFailure, nil, OutcomeTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.resp, tc.err, tc.success...))
		})
	}
}

func TestErr(t *testing.T) {
	assert.NoError(t, Err("list notes", &Response{StatusCode: http.StatusOK}, nil))

	err := Err("list notes", &Response{StatusCode: http.StatusForbidden, Body: []byte(" nope \n")}, nil)
	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "nope", statusErr.Body)
	assert.ErrorIs(t, err, constants.ErrUnauthorized)
	assert.EqualError(t, err, "list notes: status 403: nope")

	err = Err("list notes", &Response{StatusCode: http.StatusBadGateway}, nil)
	assert.ErrorIs(t, err, constants.ErrServerError)
	assert.True(t, Retryable(err))

	err = Err("create tag", &Response{StatusCode: http.StatusConflict}, nil, http.StatusCreated)
	assert.ErrorIs(t, err, constants.ErrUnexpectedStatus)
	assert.False(t, Retryable(err))

	err = Err("list users", nil, constants.ErrNetworkFailure)
	assert.ErrorIs(t, err, constants.ErrNetworkFailure)
	assert.True(t, Retryable(err))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "auth_rejected", OutcomeAuthRejected.String())
	assert.Equal(t, "transient", OutcomeTransient.String())
}
