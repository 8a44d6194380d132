// ABOUTME: Keeps the in-memory session in sync with the session file on disk
// ABOUTME: A login or logout from another pettrip process shows up here too

package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const followDebounce = 100 * time.Millisecond

// Follow watches store's directory and reloads the session whenever the
// session file is written or removed. It blocks until ctx is canceled.
func (m *Manager) Follow(ctx context.Context, store *FileStore) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create session watcher: %w", err)
	}
	defer fsw.Close()

	if err := os.MkdirAll(store.dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := fsw.Add(store.dir); err != nil {
		return fmt.Errorf("watch %s: %w", store.dir, err)
	}
	m.logger.Debug("following session file", "path", store.Path())

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != SessionFileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = time.After(followDebounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("session watcher error", "error", err)

		case <-pending:
			pending = nil
			m.Reload()
		}
	}
}
