// Package live listens for change hints pushed by the backend over a
// WebSocket. A hint only names the collection that changed; the sync client
// answers it by re-listing that collection over HTTP.
package live

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/buger/jsonparser"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devnotes/devnotes.go/pkg/connection"
	"github.com/devnotes/devnotes.go/pkg/constants"
)

// Hint names the collection a push message refers to.
type Hint string

const (
	HintNotes Hint = "notes"
	HintTags  Hint = "tags"
	HintUsers Hint = "users"
)

// ParseHint decodes {"type": "..."}. Unknown types are reported as false.
func ParseHint(msg []byte) (Hint, bool) {
	kind, err := jsonparser.GetString(msg, "type")
	if err != nil {
		return "", false
	}
	switch h := Hint(strings.ToLower(strings.TrimSpace(kind))); h {
	case HintNotes, HintTags, HintUsers:
		return h, true
	}
	return "", false
}

// DefaultDialer is gorilla's default dialer with compression enabled.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
}

// Listener keeps one WebSocket open and redials it after failures.
type Listener struct {
	URL string
	// Token is read before every dial so a refreshed session is picked up.
	Token   func() string
	Dialer  *gorilla.Dialer
	Retryer connection.Retryer
	Logger  zerolog.Logger
}

// New returns a Listener for url using the validation backoff.
func New(url string, token func() string, logger zerolog.Logger) *Listener {
	return &Listener{
		URL:     url,
		Token:   token,
		Dialer:  DefaultDialer,
		Retryer: connection.DefaultRetryConfig(),
		Logger:  logger,
	}
}

// Run dials, delivers hints to handle and redials until ctx is done. It
// returns nil on cancellation and a *connection.StatusError when the server
// refuses the session; that one is never retried.
func (l *Listener) Run(ctx context.Context, handle func(Hint)) error {
	attempt := 0
	for {
		connected, err := l.session(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		var statusErr *connection.StatusError
		if errors.As(err, &statusErr) && connection.IsAuthRejection(statusErr.StatusCode) {
			return err
		}
		if connected {
			attempt = 0
		}

		delay, ok := l.Retryer.NextDelay(attempt, err)
		if !ok {
			return err
		}
		attempt++
		l.Logger.Warn().Err(err).Dur("retry_in", delay).Str("url", l.URL).Msg("live connection lost")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connection until it fails. connected reports whether the
// dial succeeded.
func (l *Listener) session(ctx context.Context, handle func(Hint)) (connected bool, err error) {
	header := http.Header{}
	if l.Token != nil {
		if token := l.Token(); token != "" {
			header.Set(constants.SessionTokenHeader, token)
		}
	}

	dialer := l.Dialer
	if dialer == nil {
		dialer = DefaultDialer
	}

	conn, res, err := dialer.DialContext(ctx, l.URL, header)
	if res != nil && res.Body != nil {
		defer res.Body.Close()
	}
	if err != nil {
		if res != nil {
			return false, &connection.StatusError{Op: "live dial", StatusCode: res.StatusCode}
		}
		return false, fmt.Errorf("%w: %v", constants.ErrNetworkFailure, err)
	}
	l.Logger.Info().Str("url", l.URL).Msg("live connection established")

	// ReadMessage does not observe ctx; closing the socket unblocks it.
	defer conn.Close()
	done := make(chan struct{})
	defer close(done)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(gorilla.CloseMessage,
				gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
		case <-done:
		}
		return conn.Close()
	}, lifecycle.WithErrorHandler(func(err error) {
		l.Logger.Debug().Err(err).Msg("closing live connection")
	}))

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("%w: %v", constants.ErrNetworkFailure, err)
		}
		if kind != gorilla.TextMessage {
			continue
		}
		hint, ok := ParseHint(msg)
		if !ok {
			l.Logger.Debug().Bytes("message", msg).Msg("ignoring live message")
			continue
		}
		handle(hint)
	}
}
