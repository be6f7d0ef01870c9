package devnotes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/devnotes/devnotes.go/pkg/codec"
	"github.com/devnotes/devnotes.go/pkg/config"
	"github.com/devnotes/devnotes.go/pkg/connection"
	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/models"
	"github.com/devnotes/devnotes.go/pkg/session"
)

// startup restores the persisted session.
func (c *Client) startup() {
	if c.cfg.WatchSession {
		c.watchSession()
	}

	token, err := c.store.Load()
	if err != nil {
		c.logger.Warn().Err(err).Str("path", c.store.Path()).Msg("reading session token")
	}
	if token == "" {
		c.logger.Info().Str("state", StateSignedOut.String()).Msg("no stored session")
		return
	}
	c.logger.Info().Str("path", c.store.Path()).Msg("loaded session token, validating")
	c.adopt(token)
}

// adopt makes token the current session and validates it. Until the server
// answers the client behaves as signed in.
func (c *Client) adopt(token string) {
	c.stopSession()
	c.epoch++
	c.conn.SetToken(token)
	c.validateAttempt = 0
	c.validateInFlight = false
	c.setState(StateValidating)
	c.validate()
}

func (c *Client) validate() {
	c.stopValidateTimer()
	if c.validateInFlight {
		return
	}

	token := c.conn.Token()
	body := []byte(token)
	if c.cfg.ValidateBody == config.ValidateBodyJSON {
		var err error
		if body, err = codec.EncodeToken(token); err != nil {
			c.logger.Error().Err(err).Msg("encoding token")
			return
		}
	}

	c.validateInFlight = true
	epoch := c.epoch
	done := func() {
		if epoch == c.epoch {
			c.validateInFlight = false
		}
	}

	c.send(call{
		op:  "validate token",
		req: connection.Request{Method: http.MethodPost, Path: constants.PathValidateToken, Body: body},
		onSuccess: func(resp *connection.Response) error {
			done()
			if c.state != StateValidating {
				return nil
			}
			id, _ := codec.DecodeIdentity(resp.Body)
			c.logger.Info().Msg("session token validated")
			c.enterSignedIn(id)
			return nil
		},
		onFailure: func(err error) {
			done()
			c.logger.Warn().Err(err).Msg("token validation failed, keeping token")
			c.scheduleValidate(err)
		},
	})
}

func (c *Client) scheduleValidate(lastErr error) {
	if c.state != StateValidating {
		return
	}
	delay, ok := c.retry.NextDelay(c.validateAttempt, lastErr)
	if !ok {
		c.logger.Warn().Int("attempts", c.validateAttempt).Msg("giving up on token validation")
		return
	}
	c.validateAttempt++

	epoch := c.epoch
	c.validateTimer = time.AfterFunc(delay, func() {
		c.post(func() {
			if epoch == c.epoch && c.state == StateValidating {
				c.validate()
			}
		})
	})
	c.logger.Debug().Dur("delay", delay).Int("attempt", c.validateAttempt).Msg("token validation scheduled")
}

func (c *Client) stopValidateTimer() {
	if c.validateTimer != nil {
		c.validateTimer.Stop()
		c.validateTimer = nil
	}
}

// RetryValidation checks a pending stored token now instead of waiting for
// the next scheduled attempt.
func (c *Client) RetryValidation() {
	c.post(func() {
		if c.state == StateValidating {
			c.validate()
		}
	})
}

// SignIn exchanges credentials for a session. Empty credentials fail
// without contacting the server.
func (c *Client) SignIn(username, password string, cb Callback) {
	c.post(func() { c.signIn(username, password, cb) })
}

func (c *Client) signIn(username, password string, cb Callback) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		c.callback(cb, Result{
			Err:     constants.ErrMissingCredentials,
			Message: constants.ErrMissingCredentials.Error(),
		})
		return
	}

	body, err := codec.EncodeSignIn(username, password)
	if err != nil {
		c.callback(cb, Result{Err: err, Message: err.Error()})
		return
	}

	c.send(call{
		op:            "sign in",
		req:           connection.Request{Method: http.MethodPost, Path: constants.PathSignIn, Body: body},
		keepSession:   true,
		failurePrefix: "Sign in failed: ",
		cb:            cb,
		onSuccess: func(resp *connection.Response) error {
			signIn, err := codec.DecodeSignIn(resp.Body)
			if err != nil {
				return err
			}
			c.logger.Info().Str("user", username).Msg("signed in")
			c.commitSession(signIn.Token, signIn.UserID)
			return nil
		},
	})
}

// commitSession persists a freshly issued token and enters SignedIn.
func (c *Client) commitSession(token string, id models.UserID) {
	c.stopSession()
	if err := c.store.Save(token); err != nil {
		c.logger.Error().Err(err).Str("path", c.store.Path()).Msg("persisting session token")
	}
	c.epoch++
	c.conn.SetToken(token)
	c.enterSignedIn(id)
}

func (c *Client) enterSignedIn(id models.UserID) {
	c.stopValidateTimer()
	c.validateAttempt = 0

	c.viewMu.Lock()
	c.state = StateSignedIn
	if !id.IsZero() {
		c.userID = id
	}
	c.viewMu.Unlock()

	c.startPoll()
	c.startLive()
	c.logger.Info().Str("state", StateSignedIn.String()).Str("user_id", id.String()).Msg("session active")
	c.emit(SignedIn)
	c.refreshAll(nil)
}

// SignOut ends the session. Local state is cleared right away; cb reports
// whether the server acknowledged the sign-out.
func (c *Client) SignOut(cb Callback) {
	c.post(func() { c.signOut(cb) })
}

func (c *Client) signOut(cb Callback) {
	if c.state == StateSignedOut {
		c.callback(cb, Result{OK: true})
		return
	}

	token := c.conn.Token()
	c.teardown("signed out")

	c.send(call{
		op: "sign out",
		req: connection.Request{
			Method:        http.MethodPost,
			Path:          constants.PathSignOut,
			Body:          []byte(token),
			Authenticated: true,
			Token:         token,
		},
		keepSession: true,
		anyEpoch:    true,
		cb:          cb,
	})
}

// teardown drops the session locally: token file, caches, timers.
func (c *Client) teardown(reason string) {
	if c.state == StateSignedOut && c.conn.Token() == "" {
		return
	}

	if err := c.store.Delete(); err != nil {
		c.logger.Error().Err(err).Str("path", c.store.Path()).Msg("deleting session token")
	}
	c.conn.SetToken("")
	c.epoch++
	c.stopSession()
	c.guard.Reset()
	c.validateAttempt = 0
	c.validateInFlight = false

	c.viewMu.Lock()
	c.state = StateSignedOut
	c.userID = models.UserID{}
	c.notes = nil
	c.tags = nil
	c.users = nil
	c.refreshPending = false
	c.viewMu.Unlock()

	c.logger.Info().Str("state", StateSignedOut.String()).Str("reason", reason).Msg("session ended")
	c.emit(NotesUpdated, TagsUpdated, UsersUpdated, SignedOut)
}

// stopSession cancels everything tied to the current session.
func (c *Client) stopSession() {
	c.stopValidateTimer()
	if c.stopPoll != nil {
		c.stopPoll()
		c.stopPoll = nil
	}
	if c.stopLive != nil {
		c.stopLive()
		c.stopLive = nil
	}
}

func (c *Client) setState(s SessionState) {
	c.viewMu.Lock()
	c.state = s
	c.viewMu.Unlock()
}

// watchSession follows the token file so a sign-in or sign-out made by
// another process is picked up.
func (c *Client) watchSession() {
	changes, err := c.store.Watch(c.ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", c.store.Path()).Msg("cannot watch session token")
		return
	}

	lifecycle.Go(c.ctx, func(ctx context.Context) error {
		for change := range changes {
			c.post(func() { c.onSessionFile(change) })
		}
		return nil
	})
}

func (c *Client) onSessionFile(change session.Change) {
	if change.Err != nil {
		c.logger.Warn().Err(change.Err).Msg("reading changed session token")
		return
	}
	if change.Token == c.conn.Token() {
		return
	}
	if change.Token == "" {
		if c.state != StateSignedOut {
			c.teardown("session token removed")
		}
		return
	}
	c.logger.Info().Msg("session token replaced on disk")
	c.adopt(change.Token)
}
