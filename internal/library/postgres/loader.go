package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizpin/internal/domain"
	"quizpin/internal/library"
)

// Loader reads definition JSONB out of Postgres.
type Loader struct {
	pool *pgxpool.Pool
}

func NewLoader(pool *pgxpool.Pool) *Loader {
	return &Loader{pool: pool}
}

func (l *Loader) LoadDefinition(ctx context.Context, id string) (library.Definition, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quiz_definitions WHERE id=$1`, id).Scan(&raw)
	if err == pgx.ErrNoRows {
		return library.Definition{}, domain.ErrDefinitionNotFound
	}
	if err != nil {
		return library.Definition{}, fmt.Errorf("load definition: %w", err)
	}
	var def library.Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return library.Definition{}, fmt.Errorf("unmarshal definition: %w", err)
	}
	return def, nil
}
