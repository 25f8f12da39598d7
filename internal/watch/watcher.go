// Package watch turns a store subscription into a reactive cell: the latest
// decoded value at a path, merged with the path's key, refreshed on every
// push from the store.
package watch

import (
	"context"
	"encoding/json"
	"sync"

	"quizpin/internal/store"
)

// Cell is one observed value: the store key of the watched path plus the
// decoded snapshot.
type Cell[T any] struct {
	Key   string
	Value T
}

// Watcher observes a single (mutable) path. Changing the path tears down the
// old subscription and starts a new one; deliveries from a superseded
// subscription are discarded.
type Watcher[T any] struct {
	store store.Store

	mu     sync.Mutex
	path   string
	cancel func()
	gen    int
	latest *Cell[T]

	updates chan Cell[T]
	closed  bool
}

// New builds an idle watcher; nothing is observed until SetPath.
func New[T any](st store.Store) *Watcher[T] {
	return &Watcher[T]{
		store:   st,
		updates: make(chan Cell[T], 8),
	}
}

// SetPath points the watcher at path. A path equal (by value) to the current
// one is a no-op; an empty path just cancels. The first snapshot of the new
// subscription resets Latest.
func (w *Watcher[T]) SetPath(ctx context.Context, path string) error {
	w.mu.Lock()
	if w.closed || path == w.path {
		w.mu.Unlock()
		return nil
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.path = path
	w.gen++
	w.latest = nil
	gen := w.gen
	w.mu.Unlock()

	if path == "" {
		return nil
	}

	snaps, cancel, err := w.store.Subscribe(ctx, path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.gen != gen || w.closed {
		// Superseded while subscribing.
		w.mu.Unlock()
		cancel()
		return nil
	}
	w.cancel = cancel
	w.mu.Unlock()

	go w.consume(gen, snaps)
	return nil
}

func (w *Watcher[T]) consume(gen int, snaps <-chan store.Snapshot) {
	for snap := range snaps {
		if len(snap.Data) == 0 {
			continue
		}
		var value T
		if err := json.Unmarshal(snap.Data, &value); err != nil {
			continue
		}
		cell := Cell[T]{Key: snap.Key, Value: value}

		w.mu.Lock()
		if w.gen != gen || w.closed {
			w.mu.Unlock()
			return
		}
		w.latest = &cell
		select {
		case w.updates <- cell:
		default:
			// Keep only the newest pending cell.
			select {
			case <-w.updates:
			default:
			}
			w.updates <- cell
		}
		w.mu.Unlock()
	}
}

// Latest returns the most recent cell, or false while absent (no path, no
// snapshot yet, or value missing).
func (w *Watcher[T]) Latest() (Cell[T], bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latest == nil {
		var zero Cell[T]
		return zero, false
	}
	return *w.latest, true
}

// Updates is the push stream of cells. Intermediate cells may be skipped;
// the channel always ends with the newest one.
func (w *Watcher[T]) Updates() <-chan Cell[T] {
	return w.updates
}

// Path returns the currently watched path.
func (w *Watcher[T]) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Close cancels the live subscription and closes the update stream.
func (w *Watcher[T]) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	close(w.updates)
}
