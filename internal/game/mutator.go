package game

import (
	"context"
	"fmt"

	"quizpin/internal/domain"
	"quizpin/internal/store"
)

// Mutator owns every write a client makes into a session document. All
// writes are unconditional overwrites; the store's last-write-wins semantics
// are the only concurrency control, so each write is shaped to be idempotent.
type Mutator struct {
	store store.Store
}

func NewMutator(st store.Store) *Mutator {
	return &Mutator{store: st}
}

// Join writes the user into the session roster. Safe to repeat; the client
// loop calls this on every snapshot as a heartbeat.
func (m *Mutator) Join(ctx context.Context, pin string, user domain.User) error {
	path := store.Join(pin, "activeUsers", user.Key)
	return m.store.Write(ctx, path, user)
}

// SubmitAnswer records the user's choice for a question. Resubmitting
// overwrites; the last submission before the round advances counts.
func (m *Mutator) SubmitAnswer(ctx context.Context, pin string, questionIndex int, user domain.User, answer int) error {
	path := store.Join(pin, "questions", fmt.Sprintf("%d", questionIndex), "answered", user.Key)
	return m.store.Write(ctx, path, domain.AnswerRecord{Key: user.Key, Name: user.Name, Answer: answer})
}

// AdvanceRound hides the leaderboard and moves the round pointer. Two
// independent writes, not atomic: a reader may observe one without the
// other. Both are overwrites, so the window is harmless.
func (m *Mutator) AdvanceRound(ctx context.Context, pin string, nextIndex int) error {
	if err := m.store.Write(ctx, store.Join(pin, "showResults"), false); err != nil {
		return err
	}
	return m.store.Write(ctx, store.Join(pin, "questionsCount"), nextIndex)
}

// AdvanceRoundChecked is the guarded variant: the round pointer only moves
// when it still holds currentIndex, so two hosts clicking Next together
// advance a single round. Reports whether this caller won the swap.
func (m *Mutator) AdvanceRoundChecked(ctx context.Context, pin string, currentIndex, nextIndex int) (bool, error) {
	swapped, err := m.store.CompareAndSet(ctx, store.Join(pin, "questionsCount"), currentIndex, nextIndex)
	if err != nil || !swapped {
		return false, err
	}
	return true, m.store.Write(ctx, store.Join(pin, "showResults"), false)
}

// RevealResults switches the session to the leaderboard.
func (m *Mutator) RevealResults(ctx context.Context, pin string) error {
	return m.store.Write(ctx, store.Join(pin, "showResults"), true)
}

// BeginRound releases the lobby gate.
func (m *Mutator) BeginRound(ctx context.Context, pin string) error {
	return m.store.Write(ctx, store.Join(pin, "isWaiting"), false)
}

// CreateSession writes a fresh session document at pin: lobby open, pointer
// at zero, empty roster.
func (m *Mutator) CreateSession(ctx context.Context, pin string, questions []domain.Question) error {
	sess := domain.Session{
		Questions:      questions,
		QuestionsCount: 0,
		IsWaiting:      true,
		ShowResults:    false,
	}
	return m.store.Write(ctx, pin, sess)
}
