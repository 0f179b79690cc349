package store

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reports writes to the database file until ctx is cancelled.
// Dependents (the compose UI, status views) use it to refresh after a
// disconnect or an asynchronous connection-check completion lands.
//
// Events are coalesced: a burst of writes may surface as a single signal.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: SQLite swaps WAL files around, and watching
	// the file directly loses the watch on rename.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	base := filepath.Base(s.path)
	ch := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name := filepath.Base(event.Name)
				if name != base && name != base+"-wal" {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return ch, nil
}
