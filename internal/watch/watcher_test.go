package watch

import (
	"context"
	"testing"
	"time"

	"quizpin/internal/domain"
	memorystore "quizpin/internal/store/memory"
)

func TestAbsentUntilFirstValue(t *testing.T) {
	ctx := context.Background()
	st := memorystore.New()
	w := New[domain.Session](st)
	defer w.Close()

	if _, ok := w.Latest(); ok {
		t.Fatalf("expected absent before SetPath")
	}
	if err := w.SetPath(ctx, "1234"); err != nil {
		t.Fatalf("set path: %v", err)
	}
	if _, ok := w.Latest(); ok {
		t.Fatalf("expected absent before first value")
	}

	if err := st.Write(ctx, "1234/isWaiting", true); err != nil {
		t.Fatalf("write: %v", err)
	}
	cell := waitCell(t, w)
	if !cell.Value.IsWaiting || cell.Key != "1234" {
		t.Fatalf("unexpected cell %+v", cell)
	}
}

func TestSetPathSameValueIsNoop(t *testing.T) {
	ctx := context.Background()
	st := memorystore.New()
	w := New[domain.Session](st)
	defer w.Close()

	if err := w.SetPath(ctx, "1234"); err != nil {
		t.Fatalf("set path: %v", err)
	}
	if err := st.Write(ctx, "1234/questionsCount", 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitCell(t, w)

	// Equal path string: latest value survives.
	if err := w.SetPath(ctx, "1234"); err != nil {
		t.Fatalf("set same path: %v", err)
	}
	if cell, ok := w.Latest(); !ok || cell.Value.QuestionsCount != 1 {
		t.Fatalf("expected value retained, got %+v ok=%v", cell, ok)
	}
}

func TestRepathDiscardsStaleSubscription(t *testing.T) {
	ctx := context.Background()
	st := memorystore.New()
	w := New[domain.Session](st)
	defer w.Close()

	if err := st.Write(ctx, "old/questionsCount", 7); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.SetPath(ctx, "old"); err != nil {
		t.Fatalf("set path: %v", err)
	}
	waitCell(t, w)

	if err := w.SetPath(ctx, "new"); err != nil {
		t.Fatalf("repath: %v", err)
	}
	if _, ok := w.Latest(); ok {
		t.Fatalf("expected absent after repath")
	}

	// A write to the old document must never surface again.
	if err := st.Write(ctx, "old/questionsCount", 8); err != nil {
		t.Fatalf("write old: %v", err)
	}
	if err := st.Write(ctx, "new/questionsCount", 1); err != nil {
		t.Fatalf("write new: %v", err)
	}
	cell := waitCell(t, w)
	if cell.Key != "new" || cell.Value.QuestionsCount != 1 {
		t.Fatalf("expected new document, got %+v", cell)
	}
}

func TestEmptyPathCancels(t *testing.T) {
	ctx := context.Background()
	st := memorystore.New()
	w := New[domain.Session](st)
	defer w.Close()

	if err := st.Write(ctx, "1234/questionsCount", 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.SetPath(ctx, "1234"); err != nil {
		t.Fatalf("set path: %v", err)
	}
	waitCell(t, w)

	if err := w.SetPath(ctx, ""); err != nil {
		t.Fatalf("clear path: %v", err)
	}
	if _, ok := w.Latest(); ok {
		t.Fatalf("expected absent after clearing path")
	}
}

func waitCell(t *testing.T, w *Watcher[domain.Session]) Cell[domain.Session] {
	t.Helper()
	select {
	case cell, ok := <-w.Updates():
		if !ok {
			t.Fatalf("updates closed")
		}
		return cell
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for cell")
		return Cell[domain.Session]{}
	}
}
