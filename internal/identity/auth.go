package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"quizpin/internal/domain"
)

// AuthUser is the raw record an authentication service resolves.
type AuthUser struct {
	UID         string
	DisplayName string
	PhoneNumber string
}

// AuthService is the slice of an external auth provider this package needs.
// The hosted sign-in surface itself stays outside the repository.
type AuthService interface {
	// OnStateChange registers cb, invoked with the signed-in user or nil.
	// The current state is delivered immediately. Returns an unregister func.
	OnStateChange(cb func(*AuthUser)) func()
	SignOut(ctx context.Context) error
}

// AuthProvider adapts an AuthService to Provider, deriving a display name
// from the auth record.
type AuthProvider struct {
	svc     AuthService
	unsub   func()
	updates chan domain.User

	mu      sync.Mutex
	current *domain.User
}

func NewAuth(svc AuthService) *AuthProvider {
	p := &AuthProvider{
		svc:     svc,
		updates: make(chan domain.User, 4),
	}
	p.unsub = svc.OnStateChange(p.onState)
	return p
}

func (p *AuthProvider) onState(au *AuthUser) {
	p.mu.Lock()
	if au == nil {
		p.current = nil
	} else {
		p.current = &domain.User{Key: au.UID, Name: DeriveName(au)}
	}
	user := domain.User{}
	if p.current != nil {
		user = *p.current
	}
	p.mu.Unlock()

	select {
	case p.updates <- user:
	default:
		select {
		case <-p.updates:
		default:
		}
		p.updates <- user
	}
}

func (p *AuthProvider) Current() (domain.User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return domain.User{}, false
	}
	return *p.current, true
}

func (p *AuthProvider) Updates() <-chan domain.User {
	return p.updates
}

func (p *AuthProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	return p.svc.SignOut(ctx)
}

func (p *AuthProvider) Close() {
	if p.unsub != nil {
		p.unsub()
		p.unsub = nil
	}
}

// DeriveName picks a display name: the provider-supplied one, else the
// trailing digits of the phone number, else the trailing characters of the
// uid.
func DeriveName(au *AuthUser) string {
	if au.DisplayName != "" {
		return au.DisplayName
	}
	if au.PhoneNumber != "" {
		return tail(au.PhoneNumber, 4)
	}
	return tail(au.UID, 4)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// StaticAuthService is an in-process AuthService for tests and local play.
type StaticAuthService struct {
	mu   sync.Mutex
	user *AuthUser
	cbs  map[int]func(*AuthUser)
	next int
}

func NewStaticAuthService() *StaticAuthService {
	return &StaticAuthService{cbs: make(map[int]func(*AuthUser))}
}

// SignIn sets the current user and notifies listeners. An empty UID gets a
// generated one.
func (s *StaticAuthService) SignIn(user AuthUser) AuthUser {
	if user.UID == "" {
		user.UID = uuid.NewString()
	}
	s.mu.Lock()
	s.user = &user
	cbs := s.callbacksLocked()
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(&user)
	}
	return user
}

func (s *StaticAuthService) OnStateChange(cb func(*AuthUser)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.cbs[id] = cb
	current := s.user
	s.mu.Unlock()

	cb(current)
	return func() {
		s.mu.Lock()
		delete(s.cbs, id)
		s.mu.Unlock()
	}
}

func (s *StaticAuthService) SignOut(_ context.Context) error {
	s.mu.Lock()
	s.user = nil
	cbs := s.callbacksLocked()
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(nil)
	}
	return nil
}

func (s *StaticAuthService) callbacksLocked() []func(*AuthUser) {
	cbs := make([]func(*AuthUser), 0, len(s.cbs))
	for _, cb := range s.cbs {
		cbs = append(cbs, cb)
	}
	return cbs
}

// Static returns a provider already resolved to user; used by the gateway
// where identity arrives in the connection parameters.
func Static(user domain.User) Provider {
	return &staticProvider{user: user, updates: make(chan domain.User, 1)}
}

type staticProvider struct {
	mu       sync.Mutex
	user     domain.User
	signedOut bool
	updates  chan domain.User
}

func (p *staticProvider) Current() (domain.User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signedOut {
		return domain.User{}, false
	}
	return p.user, true
}

func (p *staticProvider) Updates() <-chan domain.User { return p.updates }

func (p *staticProvider) SignOut(context.Context) error {
	p.mu.Lock()
	p.signedOut = true
	p.mu.Unlock()
	return nil
}

func (p *staticProvider) Close() {}
