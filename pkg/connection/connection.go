// Package connection is the HTTP transport of the notes backend.
//
// A Connection issues one request at a time per call, attaches the session
// token when asked to, and hands back the raw status and body. It never
// interprets a status code itself; Classify does that, so every caller
// applies the same rules about which failures end a session.
package connection

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

// Doer is the part of a Connection the sync client sends requests through.
// Wrappers such as Retrying decorate it.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Config holds everything needed to build a Connection.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond throttles outgoing requests. Zero disables it.
	RequestsPerSecond float64
	Logger            zerolog.Logger
}

// NewConfig returns a Config for baseURL with the default timeout.
func NewConfig(baseURL string) *Config {
	return &Config{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: constants.DefaultHTTPTimeout,
		Logger:  zerolog.Nop(),
	}
}

// Connection is safe for concurrent use.
type Connection struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	variables sync.Map
}

var _ Doer = (*Connection)(nil)

func New(c *Config) *Connection {
	con := &Connection{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		logger:  c.Logger,
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	con.httpClient = &http.Client{Timeout: timeout}

	if c.RequestsPerSecond > 0 {
		burst := int(c.RequestsPerSecond)
		if burst < 3 {
			// a full refresh issues three lists at once
			burst = 3
		}
		con.limiter = rate.NewLimiter(rate.Limit(c.RequestsPerSecond), burst)
	}

	return con
}

// BaseURL returns the server address requests are resolved against.
func (h *Connection) BaseURL() string {
	return h.baseURL
}

func (h *Connection) SetHTTPClient(client *http.Client) *Connection {
	h.httpClient = client
	return h
}

// SetToken stores the token sent on authenticated requests. An empty token
// clears it.
func (h *Connection) SetToken(token string) {
	if token == "" {
		h.variables.Delete("token")
		return
	}
	h.variables.Store("token", token)
}

// Token returns the stored session token, or "".
func (h *Connection) Token() string {
	if token, ok := h.variables.Load("token"); ok {
		return token.(string)
	}
	return ""
}
