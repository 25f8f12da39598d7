// Package store defines the shared realtime document tree every quiz client
// coordinates through. Documents are addressed by slash-separated paths whose
// first segment names the root document (the game PIN); subscribers receive
// full snapshots of the subtree they watch, never diffs.
package store

import (
	"context"
	"strings"
)

// Snapshot is one delivered value: the last path segment of the subscription
// plus the JSON encoding of the subtree at that path. Data is nil while no
// value exists yet.
type Snapshot struct {
	Key  string
	Data []byte
}

// Store is the remote document tree. Writes are unconditional overwrites with
// last-write-wins semantics; CompareAndSet is the only guarded primitive and
// nothing in the default game flow depends on it.
type Store interface {
	// Subscribe starts a push stream of snapshots for path. An initial
	// snapshot (possibly absent) is delivered promptly; afterwards each
	// committed write under the same root triggers a fresh snapshot.
	// Intermediate values may be skipped: only the latest value is owed.
	Subscribe(ctx context.Context, path string) (<-chan Snapshot, func(), error)

	// Write overwrites the value at path, creating intermediate nodes as
	// needed, and notifies subscribers of the affected root.
	Write(ctx context.Context, path string, value any) error

	// CompareAndSet writes next at path only when the current value equals
	// expected (compared by JSON encoding). Reports whether the swap applied.
	CompareAndSet(ctx context.Context, path string, expected, next any) (bool, error)

	// ChildPath joins a parent path and a child key.
	ChildPath(parent, key string) string
}

// Root returns the first segment of a path.
func Root(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// LastKey returns the final segment of a path.
func LastKey(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Split breaks a path into its cleaned segments.
func Split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// SubSegments returns the segments of a path below its root.
func SubSegments(path string) []string {
	segments := Split(path)
	if len(segments) <= 1 {
		return nil
	}
	return segments[1:]
}

// Join builds a path out of segments, ignoring empties.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
