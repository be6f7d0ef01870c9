package devnotes

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aretw0/lifecycle"

	"github.com/devnotes/devnotes.go/pkg/connection"
	"github.com/devnotes/devnotes.go/pkg/constants"
)

// Result is the outcome of one operation as seen by its callback.
type Result struct {
	OK bool
	// Status is the HTTP status, or 0 when no response arrived.
	Status int
	// Message is the server's reply on failure, ready to show to a user.
	Message string
	Err     error
}

// Callback receives a Result on the client loop.
type Callback func(Result)

// call is one request plus what to do with its answer.
type call struct {
	op        string
	req       connection.Request
	success   []int
	onSuccess func(*connection.Response) error
	// onFailure runs for failures that are not an auth rejection.
	onFailure func(error)
	cb        Callback

	// requireSession fails the call locally while signed out.
	requireSession bool
	// keepSession: a 401/403 is reported but does not end the session.
	keepSession bool
	// anyEpoch delivers the answer even if the session changed meanwhile.
	anyEpoch bool
	// failurePrefix is prepended to the server body in Result.Message.
	failurePrefix string
}

// authed returns a call that carries the session token.
func authed(op, method, path string, body []byte, success ...int) call {
	return call{
		op: op,
		req: connection.Request{
			Method:        method,
			Path:          path,
			Body:          body,
			Authenticated: true,
		},
		success:        success,
		requireSession: true,
	}
}

// send issues cl off the loop and posts the completion back onto it.
func (c *Client) send(cl call) {
	if cl.requireSession && c.state == StateSignedOut {
		c.callback(cl.cb, Result{Err: constants.ErrNotSignedIn, Message: constants.ErrNotSignedIn.Error()})
		return
	}

	epoch := c.epoch
	c.logger.Debug().Str("op", cl.op).Str("method", cl.req.Method).Str("path", cl.req.Path).Msg("sending")

	lifecycle.Go(c.ctx, func(ctx context.Context) error {
		resp, err := c.doer.Do(ctx, cl.req)
		c.loop.Post(func() { c.complete(cl, epoch, resp, err) })
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		c.logger.Error().Err(err).Str("op", cl.op).Msg("request goroutine failed")
	}))
}

func (c *Client) complete(cl call, epoch uint64, resp *connection.Response, err error) {
	res := Result{}
	if resp != nil {
		res.Status = resp.StatusCode
	}

	if epoch != c.epoch && !cl.anyEpoch {
		c.logger.Debug().Str("op", cl.op).Int("status", res.Status).Msg("dropping answer for a previous session")
		res.Err = constants.ErrSessionChanged
		res.Message = constants.ErrSessionChanged.Error()
		c.callback(cl.cb, res)
		return
	}

	success := cl.success
	if len(success) == 0 {
		success = []int{http.StatusOK}
	}

	switch connection.Classify(resp, err, success...) {
	case connection.OutcomeSuccess:
		if cl.onSuccess != nil {
			if err := cl.onSuccess(resp); err != nil {
				c.logger.Error().Err(err).Str("op", cl.op).Int("status", res.Status).Msg("malformed response")
				res.Err = err
				res.Message = err.Error()
				break
			}
		}
		res.OK = true

	case connection.OutcomeAuthRejected:
		res.Err = connection.Err(cl.op, resp, err, success...)
		res.Message = failureMessage(cl.failurePrefix, resp)
		c.logger.Warn().Str("op", cl.op).Int("status", res.Status).Msg("request rejected")
		if !cl.keepSession {
			c.teardown("session rejected by server")
		}

	default:
		res.Err = connection.Err(cl.op, resp, err, success...)
		res.Message = failureMessage(cl.failurePrefix, resp)
		c.logger.Warn().Err(res.Err).Str("op", cl.op).Int("status", res.Status).Msg("request failed")
		if cl.onFailure != nil {
			cl.onFailure(res.Err)
		}
	}

	c.callback(cl.cb, res)
}

func failureMessage(prefix string, resp *connection.Response) string {
	if resp == nil {
		return constants.NoServerResponseError
	}
	body := strings.TrimSpace(string(resp.Body))
	if body == "" {
		body = http.StatusText(resp.StatusCode)
	}
	return prefix + body
}

func (c *Client) callback(cb Callback, res Result) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("panic in callback")
		}
	}()
	cb(res)
}

// IsAuthError reports whether the server rejected the token or credentials.
func IsAuthError(res Result) bool {
	return errors.Is(res.Err, constants.ErrUnauthorized)
}
