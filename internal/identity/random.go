package identity

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quizpin/internal/domain"
	"quizpin/internal/store"
	"quizpin/internal/watch"
)

// RandomProvider draws one of a fixed set of roster slots and watches its
// profile in the document store at users/{n}. The draw is stable for the
// process lifetime only; a restart may land on a different slot.
type RandomProvider struct {
	slot      int
	watcher   *watch.Watcher[domain.User]
	updates   chan domain.User
	done      chan struct{}
	closeOnce sync.Once
}

// RosterSlots is the number of predefined user profiles under users/.
const RosterSlots = 4

// NewRandom picks a slot and starts watching its profile.
func NewRandom(ctx context.Context, st store.Store) (*RandomProvider, error) {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return newRandomSlot(ctx, st, 1+rnd.Intn(RosterSlots))
}

func newRandomSlot(ctx context.Context, st store.Store, slot int) (*RandomProvider, error) {
	p := &RandomProvider{
		slot:    slot,
		watcher: watch.New[domain.User](st),
		updates: make(chan domain.User, 4),
		done:    make(chan struct{}),
	}
	if err := p.watcher.SetPath(ctx, store.Join("users", strconv.Itoa(slot))); err != nil {
		return nil, err
	}
	go p.forward()
	return p, nil
}

func (p *RandomProvider) forward() {
	for cell := range p.watcher.Updates() {
		user := cell.Value
		user.Key = cell.Key
		select {
		case p.updates <- user:
		case <-p.done:
			return
		}
	}
}

func (p *RandomProvider) Current() (domain.User, bool) {
	cell, ok := p.watcher.Latest()
	if !ok {
		return domain.User{}, false
	}
	user := cell.Value
	user.Key = cell.Key
	return user, true
}

func (p *RandomProvider) Updates() <-chan domain.User {
	return p.updates
}

// SignOut drops the profile subscription. There is no remote state to clear
// for a random identity.
func (p *RandomProvider) SignOut(ctx context.Context) error {
	return p.watcher.SetPath(ctx, "")
}

func (p *RandomProvider) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.watcher.Close()
	})
}
