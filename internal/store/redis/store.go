// Package redis backs the document store with Redis: one JSON blob per root
// document, change fanout over pub/sub. Writes are read-modify-write with
// last-write-wins semantics, matching the permissive concurrency posture of
// the rest of the system; CompareAndSet is the only transactional path.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"quizpin/internal/store"
)

var errEmptyPath = errors.New("empty document path")

// Store implements store.Store on a Redis client.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

// New wraps client. Documents expire after ttl when ttl > 0, so abandoned
// games eventually vanish on their own.
func New(client *goredis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) docKey(root string) string  { return "doc:" + root }
func (s *Store) evtChan(root string) string { return "docevt:" + root }

func (s *Store) Subscribe(ctx context.Context, path string) (<-chan store.Snapshot, func(), error) {
	root := store.Root(path)
	if root == "" {
		return nil, nil, errEmptyPath
	}
	pubsub := s.client.Subscribe(ctx, s.evtChan(root))
	// Force the SUBSCRIBE round trip so no write between the initial read
	// and the stream start is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	segments := store.SubSegments(path)
	key := store.LastKey(path)
	out := make(chan store.Snapshot, 8)
	done := make(chan struct{})

	go func() {
		defer close(out)
		deliver := func() {
			snap, err := s.snapshot(ctx, root, segments, key)
			if err != nil {
				return
			}
			select {
			case out <- snap:
			default:
				// Latest value wins; drop the stale pending one.
				select {
				case <-out:
				default:
				}
				out <- snap
			}
		}
		deliver()
		msgs := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				deliver()
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			pubsub.Close()
			close(done)
		})
	}
	return out, cancel, nil
}

func (s *Store) snapshot(ctx context.Context, root string, segments []string, key string) (store.Snapshot, error) {
	raw, err := s.client.Get(ctx, s.docKey(root)).Bytes()
	if err == goredis.Nil {
		return store.Snapshot{Key: key}, nil
	}
	if err != nil {
		return store.Snapshot{}, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return store.Snapshot{Key: key}, nil
	}
	data, err := store.EncodeAt(doc, segments)
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.Snapshot{Key: key, Data: data}, nil
}

func (s *Store) Write(ctx context.Context, path string, value any) error {
	root := store.Root(path)
	if root == "" {
		return errEmptyPath
	}
	normalized, err := store.Normalize(value)
	if err != nil {
		return err
	}

	var doc any
	raw, err := s.client.Get(ctx, s.docKey(root)).Bytes()
	if err != nil && err != goredis.Nil {
		return err
	}
	if err == nil {
		_ = json.Unmarshal(raw, &doc)
	}
	doc = store.SetAt(doc, store.SubSegments(path), normalized)

	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.docKey(root), encoded, s.ttl).Err(); err != nil {
		return err
	}
	return s.client.Publish(ctx, s.evtChan(root), path).Err()
}

func (s *Store) CompareAndSet(ctx context.Context, path string, expected, next any) (bool, error) {
	root := store.Root(path)
	if root == "" {
		return false, errEmptyPath
	}
	normalized, err := store.Normalize(next)
	if err != nil {
		return false, err
	}
	segments := store.SubSegments(path)
	swapped := false

	err = s.client.Watch(ctx, func(tx *goredis.Tx) error {
		var doc any
		raw, err := tx.Get(ctx, s.docKey(root)).Bytes()
		if err != nil && err != goredis.Nil {
			return err
		}
		if err == nil {
			_ = json.Unmarshal(raw, &doc)
		}
		current, _ := store.ValueAt(doc, segments)
		if !store.SameJSON(current, expected) {
			return nil
		}
		doc = store.SetAt(doc, segments, normalized)
		encoded, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, s.docKey(root), encoded, s.ttl)
			pipe.Publish(ctx, s.evtChan(root), path)
			return nil
		})
		if err == nil {
			swapped = true
		}
		return err
	}, s.docKey(root))
	if err != nil {
		return false, err
	}
	return swapped, nil
}

func (s *Store) ChildPath(parent, key string) string {
	return store.Join(parent, key)
}
