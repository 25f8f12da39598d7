package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"quizpin/internal/store"
)

func TestWriteThenSubscribeSeesDocument(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	if err := st.Write(ctx, "1234/isWaiting", true); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !mr.Exists("doc:1234") {
		t.Fatalf("expected document key in redis")
	}

	snaps, cancel, err := st.Subscribe(ctx, "1234")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	snap := waitSnap(t, snaps)
	var doc map[string]any
	if err := json.Unmarshal(snap.Data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["isWaiting"] != true {
		t.Fatalf("expected isWaiting true, got %+v", doc)
	}
}

func TestSubscribeReceivesPublishedChanges(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	snaps, cancel, err := st.Subscribe(ctx, "1234/questionsCount")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	waitSnap(t, snaps) // initial absent

	if err := st.Write(ctx, "1234/questionsCount", 3); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap := waitSnap(t, snaps)
	if string(snap.Data) != "3" {
		t.Fatalf("expected count 3, got %s", snap.Data)
	}
	if snap.Key != "questionsCount" {
		t.Fatalf("expected key questionsCount, got %q", snap.Key)
	}
}

func TestCompareAndSetGuardsPointer(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	if err := st.Write(ctx, "1234/questionsCount", 0); err != nil {
		t.Fatalf("write: %v", err)
	}

	swapped, err := st.CompareAndSet(ctx, "1234/questionsCount", 0, 1)
	if err != nil || !swapped {
		t.Fatalf("expected swap, swapped=%v err=%v", swapped, err)
	}
	swapped, err = st.CompareAndSet(ctx, "1234/questionsCount", 0, 2)
	if err != nil {
		t.Fatalf("cas: %v", err)
	}
	if swapped {
		t.Fatalf("expected stale cas to lose")
	}
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return New(client, time.Minute), mr
}

func waitSnap(t *testing.T, snaps <-chan store.Snapshot) store.Snapshot {
	t.Helper()
	select {
	case snap := <-snaps:
		return snap
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
		return store.Snapshot{}
	}
}
