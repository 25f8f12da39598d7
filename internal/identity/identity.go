// Package identity resolves the stable per-client user consumed by the game
// loop. Two providers exist: a random roster slot for PIN-only play, and an
// auth-service-backed one for signed-in play.
package identity

import (
	"context"

	"quizpin/internal/domain"
)

// Provider yields the client's resolved user, pushing a fresh value whenever
// identity changes (sign-in, sign-out, profile load).
type Provider interface {
	// Current returns the resolved user, or false while unresolved.
	Current() (domain.User, bool)
	// Updates pushes each identity change. A zero-key user means signed out.
	Updates() <-chan domain.User
	// SignOut clears the local identity and notifies the backing service.
	SignOut(ctx context.Context) error
	// Close releases subscriptions.
	Close()
}
