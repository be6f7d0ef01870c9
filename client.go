package devnotes

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/rs/zerolog"

	"github.com/devnotes/devnotes.go/internal/loop"
	"github.com/devnotes/devnotes.go/pkg/codec"
	"github.com/devnotes/devnotes.go/pkg/config"
	"github.com/devnotes/devnotes.go/pkg/connection"
	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/editguard"
	"github.com/devnotes/devnotes.go/pkg/models"
	"github.com/devnotes/devnotes.go/pkg/session"
)

// SessionState is where the client is in the sign-in lifecycle.
type SessionState int

const (
	StateSignedOut SessionState = iota
	// StateValidating means a stored token is being checked. The client
	// already behaves as signed in.
	StateValidating
	StateSignedIn
)

func (s SessionState) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateSignedIn:
		return "signed_in"
	default:
		return "signed_out"
	}
}

// Config configures a Client. Zero values take the package defaults.
type Config struct {
	ServerAddress string
	// LiveURL enables push hints over a WebSocket when set.
	LiveURL string
	// DataDir holds DevNotes/session.token. Ignored when Store is set.
	DataDir string
	Store   *session.Store
	// PollInterval between automatic refreshes. Negative disables polling.
	PollInterval      time.Duration
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	ValidateBody      config.ValidateBody
	// ValidateRetry paces validation attempts after transient failures.
	ValidateRetry connection.Retryer
	// WatchSession follows token file changes made by other processes.
	WatchSession bool
	HTTPClient   *http.Client
	// WrapTransport, when set, decorates the connection requests go through.
	WrapTransport func(connection.Doer) connection.Doer
	Logger        zerolog.Logger
	Clock         func() time.Time
}

// ConfigFrom maps loaded settings onto a client Config.
func ConfigFrom(cfg config.Config, logger zerolog.Logger) Config {
	return Config{
		ServerAddress:     cfg.ServerAddress,
		LiveURL:           cfg.LiveURL,
		DataDir:           cfg.DataDir,
		PollInterval:      cfg.PollInterval,
		RequestTimeout:    cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		ValidateBody:      cfg.ValidateBody,
		Logger:            logger,
	}
}

// Client is the sync client. Create one with New and drive it with Run or
// Start. All methods are safe for concurrent use.
type Client struct {
	cfg    Config
	conn   *connection.Connection
	doer   connection.Doer
	store  *session.Store
	codec  *codec.Codec
	loop   *loop.Loop
	guard  *editguard.Guard
	events *eventManager
	logger zerolog.Logger
	retry  connection.Retryer

	started atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc

	// Owned by the loop goroutine.
	ctx              context.Context
	epoch            uint64
	stopPoll         context.CancelFunc
	stopLive         context.CancelFunc
	validateTimer    *time.Timer
	validateAttempt  int
	validateInFlight bool

	// Written on the loop under viewMu, read anywhere.
	viewMu         sync.RWMutex
	state          SessionState
	userID         models.UserID
	notes          []models.Note
	tags           []models.Tag
	users          []models.User
	editing        bool
	refreshPending bool
	lastRefresh    time.Time
}

// New builds a client. It does no I/O; the stored session is read once Run
// starts.
func New(cfg Config) (*Client, error) {
	if cfg.ServerAddress == "" {
		cfg.ServerAddress = constants.DefaultServerAddress
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = constants.DefaultPollInterval
	}
	if cfg.ValidateBody == "" {
		cfg.ValidateBody = config.ValidateBodyRaw
	}

	store := cfg.Store
	if store == nil {
		dataDir := cfg.DataDir
		if dataDir == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("resolve data dir: %w", err)
			}
			dataDir = dir
		}
		store = session.NewStore(dataDir)
	}

	conn := connection.New(&connection.Config{
		BaseURL:           cfg.ServerAddress,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            cfg.Logger,
	})
	if cfg.HTTPClient != nil {
		conn.SetHTTPClient(cfg.HTTPClient)
	}

	var doer connection.Doer = conn
	if cfg.WrapTransport != nil {
		doer = cfg.WrapTransport(conn)
	}

	retry := cfg.ValidateRetry
	if retry == nil {
		retry = connection.DefaultRetryConfig()
	}

	c := &Client{
		cfg:    cfg,
		conn:   conn,
		doer:   doer,
		store:  store,
		codec:  &codec.Codec{Clock: cfg.Clock},
		loop:   loop.New(),
		events: newEventManager(cfg.Logger),
		logger: cfg.Logger,
		retry:  retry,
	}
	c.guard = editguard.New(func() { c.refreshAll(nil) })

	// first in the queue, ahead of anything a caller posts before Run
	c.loop.Post(c.startup)
	return c, nil
}

// Run drives the client until ctx is done or Close is called.
func (c *Client) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return constants.ErrAlreadyStarted
	}
	return c.run(c.withCancel(ctx))
}

// Start runs the client in the background.
func (c *Client) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return constants.ErrAlreadyStarted
	}
	ctx = c.withCancel(ctx)
	lifecycle.Go(ctx, c.run, lifecycle.WithErrorHandler(func(err error) {
		c.logger.Error().Err(err).Msg("client loop stopped")
	}))
	return nil
}

// Close stops the client and waits for its loop to exit. Pending callbacks
// are dropped.
func (c *Client) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-c.loop.Done()
	return nil
}

func (c *Client) withCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	return ctx
}

func (c *Client) run(ctx context.Context) error {
	c.ctx = ctx
	err := c.loop.Run(ctx)
	c.stopValidateTimer()
	return err
}

// post queues fn on the loop. After Close it is dropped.
func (c *Client) post(fn func()) {
	if !c.loop.Post(fn) {
		c.logger.Debug().Msg("client closed, dropping operation")
	}
}

// Subscribe registers handler for events of type t and returns a function
// that removes it.
func (c *Client) Subscribe(t EventType, handler EventHandler) (unsubscribe func()) {
	return c.events.subscribe(t, handler)
}

func (c *Client) emit(types ...EventType) {
	for _, t := range types {
		c.events.publish(Event{Type: t})
	}
}

func (c *Client) now() time.Time {
	if c.cfg.Clock != nil {
		return c.cfg.Clock().UTC()
	}
	return time.Now().UTC()
}
