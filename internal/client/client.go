// Package client runs the per-participant game loop: it resolves an
// identity, watches the session document named by the PIN, reduces every
// snapshot to a screen, and performs the writes behind user actions. All
// coordination between participants flows through the shared store; there is
// no game server.
package client

import (
	"context"
	"log"
	"sync"

	"quizpin/internal/domain"
	"quizpin/internal/game"
	"quizpin/internal/identity"
	"quizpin/internal/store"
	"quizpin/internal/watch"
)

// Client is one participant's view of a quiz session.
type Client struct {
	store store.Store
	ident identity.Provider
	mut   *game.Mutator
	quiz  *watch.Watcher[domain.Session]
	admin bool

	mu     sync.Mutex
	user   *domain.User
	sess   *domain.Session
	screen game.Screen
	subs   map[chan game.Screen]struct{}
}

// Option configures a Client.
type Option func(*Client)

// AsAdmin enables the host actions (Begin, Reveal, Next).
func AsAdmin() Option {
	return func(c *Client) { c.admin = true }
}

func New(st store.Store, ident identity.Provider, opts ...Option) *Client {
	c := &Client{
		store:  st,
		ident:  ident,
		mut:    game.NewMutator(st),
		quiz:   watch.New[domain.Session](st),
		screen: game.Unidentified{},
		subs:   make(map[chan game.Screen]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives the loop until ctx is done. State changes arrive only as pushes
// from the identity provider and the session watcher; nothing blocks besides
// the select.
func (c *Client) Run(ctx context.Context) error {
	if user, ok := c.ident.Current(); ok {
		c.mu.Lock()
		c.user = &user
		c.mu.Unlock()
	}
	c.republish()

	identUpdates := c.ident.Updates()
	quizUpdates := c.quiz.Updates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case user, ok := <-identUpdates:
			if !ok {
				identUpdates = nil
				continue
			}
			c.mu.Lock()
			if user.Key == "" {
				c.user = nil
			} else {
				u := user
				c.user = &u
			}
			c.mu.Unlock()
			c.republish()
		case cell, ok := <-quizUpdates:
			if !ok {
				quizUpdates = nil
				continue
			}
			sess := cell.Value
			sess.Key = cell.Key
			c.mu.Lock()
			c.sess = &sess
			user := c.user
			c.mu.Unlock()

			// Roster heartbeat: rewrite ourselves into activeUsers on
			// every snapshot while a session is loaded. Idempotent, and
			// failures stay silent per the store's fire-and-forget posture.
			if user != nil {
				if err := c.mut.Join(ctx, c.quiz.Path(), *user); err != nil {
					log.Printf("roster heartbeat failed: %v", err)
				}
			}
			c.republish()
		}
	}
}

// EnterPIN points the client at a session document. The PIN is used verbatim
// as the store path; a wrong PIN simply never produces a snapshot. An empty
// PIN returns to the welcome screen.
func (c *Client) EnterPIN(ctx context.Context, pin string) error {
	if err := c.quiz.SetPath(ctx, pin); err != nil {
		return err
	}
	c.mu.Lock()
	c.sess = nil
	c.mu.Unlock()
	c.republish()
	return nil
}

// Answer submits the user's choice for the active question. Resubmission
// overwrites the previous choice.
func (c *Client) Answer(ctx context.Context, answerIndex int) error {
	c.mu.Lock()
	user, sess := c.user, c.sess
	c.mu.Unlock()
	if user == nil {
		return domain.ErrNoIdentity
	}
	if sess == nil {
		return domain.ErrNoSession
	}
	return c.mut.SubmitAnswer(ctx, c.quiz.Path(), sess.QuestionsCount, *user, answerIndex)
}

// Begin releases the lobby. Host only.
func (c *Client) Begin(ctx context.Context) error {
	if err := c.requireHostSession(); err != nil {
		return err
	}
	return c.mut.BeginRound(ctx, c.quiz.Path())
}

// Reveal switches the session to the leaderboard. Host only.
func (c *Client) Reveal(ctx context.Context) error {
	if err := c.requireHostSession(); err != nil {
		return err
	}
	return c.mut.RevealResults(ctx, c.quiz.Path())
}

// Next moves to the following round. Host only. The guarded advance keeps
// two hosts pressing Next together from skipping a question.
func (c *Client) Next(ctx context.Context) error {
	c.mu.Lock()
	if !c.admin {
		c.mu.Unlock()
		return domain.ErrNotAdmin
	}
	if c.sess == nil {
		c.mu.Unlock()
		return domain.ErrNoSession
	}
	current := c.sess.QuestionsCount
	c.mu.Unlock()
	_, err := c.mut.AdvanceRoundChecked(ctx, c.quiz.Path(), current, current+1)
	return err
}

// SignOut clears the identity and detaches from the session.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.ident.SignOut(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()
	if err := c.quiz.SetPath(ctx, ""); err != nil {
		return err
	}
	c.mu.Lock()
	c.sess = nil
	c.mu.Unlock()
	c.republish()
	return nil
}

func (c *Client) requireHostSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.admin {
		return domain.ErrNotAdmin
	}
	if c.sess == nil {
		return domain.ErrNoSession
	}
	return nil
}

// Screen returns the currently active screen.
func (c *Client) Screen() game.Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// Screens subscribes to screen changes. The current screen is delivered
// first; slow subscribers only ever miss intermediate screens, never the
// latest. The cancel func must be called to avoid leaks.
func (c *Client) Screens() (<-chan game.Screen, func()) {
	ch := make(chan game.Screen, 8)

	c.mu.Lock()
	c.subs[ch] = struct{}{}
	current := c.screen
	c.mu.Unlock()

	ch <- current

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			close(ch)
			c.mu.Unlock()
		})
	}
	return ch, cancel
}

func (c *Client) republish() {
	c.mu.Lock()
	c.screen = game.Reduce(c.user, c.sess)
	screen := c.screen
	for ch := range c.subs {
		select {
		case ch <- screen:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- screen
		}
	}
	c.mu.Unlock()
}

// Close tears down the session watcher. The identity provider is owned by
// the caller.
func (c *Client) Close() {
	c.quiz.Close()
}
