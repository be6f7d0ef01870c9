package devnotes

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/devnotes/devnotes.go/pkg/connection"
	"github.com/devnotes/devnotes.go/pkg/connection/live"
	"github.com/devnotes/devnotes.go/pkg/editguard"
)

// BeginEdit holds automatic refreshes back until EndEdit.
func (c *Client) BeginEdit() {
	c.post(func() {
		c.guard.BeginEdit()
		c.syncGuard()
	})
}

// EndEdit releases the hold. One refresh runs if any was held back.
func (c *Client) EndEdit() {
	c.post(func() {
		c.guard.EndEdit()
		c.syncGuard()
	})
}

// SetEditing calls BeginEdit or EndEdit.
func (c *Client) SetEditing(editing bool) {
	if editing {
		c.BeginEdit()
	} else {
		c.EndEdit()
	}
}

// requestRefresh runs a full refresh through the edit guard.
func (c *Client) requestRefresh(source string) {
	if !c.guard.Trigger() {
		c.logger.Debug().Str("source", source).Msg("refresh deferred while editing")
	}
	c.syncGuard()
}

func (c *Client) syncGuard() {
	c.viewMu.Lock()
	c.editing = c.guard.State() == editguard.Editing
	c.refreshPending = c.guard.Pending()
	c.viewMu.Unlock()
}

func (c *Client) startPoll() {
	if c.stopPoll != nil {
		c.stopPoll()
		c.stopPoll = nil
	}
	interval := c.cfg.PollInterval
	if interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.stopPoll = cancel
	epoch := c.epoch

	lifecycle.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				c.post(func() { c.onPollTick(epoch) })
			}
		}
	})
}

func (c *Client) onPollTick(epoch uint64) {
	if epoch != c.epoch || c.state == StateSignedOut {
		return
	}
	c.requestRefresh("poll")
}

func (c *Client) startLive() {
	if c.stopLive != nil {
		c.stopLive()
		c.stopLive = nil
	}
	if c.cfg.LiveURL == "" {
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.stopLive = cancel
	epoch := c.epoch
	listener := live.New(c.cfg.LiveURL, c.conn.Token, c.logger)
	listener.Retryer = c.retry

	lifecycle.Go(ctx, func(ctx context.Context) error {
		err := listener.Run(ctx, func(h live.Hint) {
			c.post(func() { c.onHint(epoch, h) })
		})

		var statusErr *connection.StatusError
		switch {
		case errors.As(err, &statusErr) && connection.IsAuthRejection(statusErr.StatusCode):
			c.post(func() {
				if epoch == c.epoch {
					c.teardown("live session rejected by server")
				}
			})
		case err != nil:
			c.logger.Warn().Err(err).Str("url", c.cfg.LiveURL).Msg("live updates stopped")
		}
		return nil
	})
}

func (c *Client) onHint(epoch uint64, h live.Hint) {
	if epoch != c.epoch || c.state == StateSignedOut {
		return
	}
	c.logger.Debug().Str("hint", string(h)).Msg("change hint")

	switch h {
	case live.HintNotes:
		c.requestRefresh("live")
	case live.HintTags:
		c.listTags(nil)
	case live.HintUsers:
		c.listUsers(nil)
	}
}
