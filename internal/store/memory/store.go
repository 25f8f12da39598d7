// Package memory is the in-process document store backend, used for tests
// and single-machine games.
package memory

import (
	"context"
	"errors"
	"sync"

	"quizpin/internal/store"
)

var errEmptyPath = errors.New("empty document path")

// Store keeps root documents as decoded JSON trees and fans out snapshots to
// per-root subscribers.
type Store struct {
	mu    sync.RWMutex
	roots map[string]any
	subs  map[string]map[*subscription]struct{}
}

type subscription struct {
	segments []string
	key      string
	ch       chan store.Snapshot
}

func New() *Store {
	return &Store{
		roots: make(map[string]any),
		subs:  make(map[string]map[*subscription]struct{}),
	}
}

func (s *Store) Subscribe(ctx context.Context, path string) (<-chan store.Snapshot, func(), error) {
	root := store.Root(path)
	if root == "" {
		return nil, nil, errEmptyPath
	}
	sub := &subscription{
		segments: store.SubSegments(path),
		key:      store.LastKey(path),
		ch:       make(chan store.Snapshot, 8),
	}

	s.mu.Lock()
	if s.subs[root] == nil {
		s.subs[root] = make(map[*subscription]struct{})
	}
	s.subs[root][sub] = struct{}{}
	initial := s.snapshotLocked(root, sub)
	s.mu.Unlock()

	sub.ch <- initial

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[root], sub)
			close(sub.ch)
			s.mu.Unlock()
		})
	}
	return sub.ch, cancel, nil
}

func (s *Store) Write(_ context.Context, path string, value any) error {
	normalized, err := store.Normalize(value)
	if err != nil {
		return err
	}
	root := store.Root(path)
	if root == "" {
		return errEmptyPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots[root] = store.SetAt(s.roots[root], store.SubSegments(path), normalized)
	s.broadcastLocked(root)
	return nil
}

func (s *Store) CompareAndSet(_ context.Context, path string, expected, next any) (bool, error) {
	normalized, err := store.Normalize(next)
	if err != nil {
		return false, err
	}
	root := store.Root(path)
	segments := store.SubSegments(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	current, _ := store.ValueAt(s.roots[root], segments)
	if !store.SameJSON(current, expected) {
		return false, nil
	}
	s.roots[root] = store.SetAt(s.roots[root], segments, normalized)
	s.broadcastLocked(root)
	return true, nil
}

func (s *Store) ChildPath(parent, key string) string {
	return store.Join(parent, key)
}

func (s *Store) broadcastLocked(root string) {
	for sub := range s.subs[root] {
		snap := s.snapshotLocked(root, sub)
		select {
		case sub.ch <- snap:
		default:
			// Slow subscriber: drop its stale pending snapshot so the
			// latest value always lands.
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snap
		}
	}
}

func (s *Store) snapshotLocked(root string, sub *subscription) store.Snapshot {
	data, _ := store.EncodeAt(s.roots[root], sub.segments)
	return store.Snapshot{Key: sub.key, Data: data}
}
