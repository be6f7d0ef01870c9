package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

// Change reports the token file's content after another process touched it.
// Token is "" when the file was removed.
type Change struct {
	Token string
	Err   error
}

// Watch emits a Change whenever the token file is created, rewritten or
// removed. The channel is closed when ctx is done. Writes made through this
// Store are reported too; callers compare against the token they hold.
func (s *Store) Watch(ctx context.Context) (<-chan Change, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, constants.SessionTokenDirMode); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: the file itself is replaced on every save.
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan Change, 1)
	name := filepath.Base(s.path)
	last, _ := s.Load()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		defer watcher.Close()

		send := func(c Change) bool {
			select {
			case out <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				token, err := s.Load()
				if err != nil {
					if !send(Change{Err: err}) {
						return nil
					}
					continue
				}
				if token == last {
					continue
				}
				last = token
				if !send(Change{Token: token}) {
					return nil
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if !send(Change{Err: err}) {
					return nil
				}
			}
		}
	})

	return out, nil
}
