// Package library holds authored quiz content. Definitions live in a
// backing store (Postgres in production) and are cached in front of it;
// hosting a game copies a definition into a fresh session document.
package library

import (
	"context"

	"quizpin/internal/domain"
)

// Definition is an authored quiz: the questions a hosted session starts with.
type Definition struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Questions []domain.Question `json:"questions"`
}

// Loader fetches definitions from the backing store.
type Loader interface {
	LoadDefinition(ctx context.Context, id string) (Definition, error)
}

// Repository serves definitions, typically a cache over a Loader.
type Repository interface {
	GetDefinition(ctx context.Context, id string) (Definition, error)
}
