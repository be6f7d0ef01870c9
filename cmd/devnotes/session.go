package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/devnotes/devnotes.go"
	"github.com/devnotes/devnotes.go/pkg/connection"
	"github.com/devnotes/devnotes.go/pkg/constants"
	"github.com/devnotes/devnotes.go/pkg/session"
)

// oneShotRetry rides out a brief network blip for commands that run once.
var oneShotRetry = connection.RetryConfig{
	InitialWait: 250 * time.Millisecond,
	MaxWait:     2 * time.Second,
	Multiplier:  2,
	MaxAttempts: 2,
}

var errStillValidating = errors.New("server did not confirm the stored session; token kept, try again later")

// connect starts a client and waits until the stored session, if any, has
// been checked with the server.
func connect(ctx context.Context, opts ...func(*devnotes.Config)) (*devnotes.Client, error) {
	cfg := devnotes.ConfigFrom(settings, logData.Logger)
	// one-shot commands refresh explicitly
	cfg.PollInterval = -1
	cfg.WrapTransport = func(d connection.Doer) connection.Doer {
		return connection.Retrying(d, oneShotRetry)
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := devnotes.New(cfg)
	if err != nil {
		return nil, err
	}

	settled := make(chan struct{}, 1)
	signal := func(devnotes.Event) {
		select {
		case settled <- struct{}{}:
		default:
		}
	}
	unsubIn := client.Subscribe(devnotes.SignedIn, signal)
	unsubOut := client.Subscribe(devnotes.SignedOut, signal)
	defer unsubIn()
	defer unsubOut()

	if err := client.Start(ctx); err != nil {
		return nil, err
	}

	token, err := session.NewStore(settings.DataDir).Load()
	if err != nil || token == "" {
		return client, nil
	}

	select {
	case <-settled:
	case <-time.After(settings.RequestTimeout + time.Second):
	case <-ctx.Done():
		_ = client.Close()
		return nil, ctx.Err()
	}
	return client, nil
}

// requireSession fails unless the client holds a confirmed session.
func requireSession(client *devnotes.Client) error {
	switch client.SessionState() {
	case devnotes.StateSignedIn:
		return nil
	case devnotes.StateValidating:
		return errStillValidating
	default:
		return fmt.Errorf("%w: run 'devnotes signin' first", constants.ErrNotSignedIn)
	}
}

// await runs op and blocks until its callback fires.
func await(ctx context.Context, op func(devnotes.Callback)) (devnotes.Result, error) {
	done := make(chan devnotes.Result, 1)
	op(func(r devnotes.Result) { done <- r })
	select {
	case r := <-done:
		if !r.OK {
			if r.Message != "" {
				return r, errors.New(r.Message)
			}
			return r, r.Err
		}
		return r, nil
	case <-time.After(settings.RequestTimeout + time.Second):
		return devnotes.Result{}, errors.New(constants.NoServerResponseError)
	case <-ctx.Done():
		return devnotes.Result{}, ctx.Err()
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}
