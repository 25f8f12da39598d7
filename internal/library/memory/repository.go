package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizpin/internal/domain"
	"quizpin/internal/library"
)

// Repository caches definitions with TTL to avoid repeated backing-store
// hits while a game is being hosted.
type Repository struct {
	loader library.Loader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedDefinition
}

type cachedDefinition struct {
	def       library.Definition
	expiresAt time.Time
}

func NewRepository(loader library.Loader, ttl time.Duration) *Repository {
	return &Repository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedDefinition),
	}
}

func (r *Repository) GetDefinition(ctx context.Context, id string) (library.Definition, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.def, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.def, nil
		}
		r.mu.RUnlock()

		def, err := r.loader.LoadDefinition(ctx, id)
		if err != nil {
			return library.Definition{}, err
		}

		r.mu.Lock()
		r.cache[id] = cachedDefinition{
			def:       def,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return def, nil
	})
	if err != nil {
		return library.Definition{}, err
	}
	return result.(library.Definition), nil
}

func (r *Repository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticLoader serves definitions from a fixed map (tests, demos, running
// without Postgres).
type StaticLoader struct {
	defs map[string]library.Definition
}

func NewStaticLoader(defs map[string]library.Definition) *StaticLoader {
	return &StaticLoader{defs: defs}
}

func (l *StaticLoader) LoadDefinition(_ context.Context, id string) (library.Definition, error) {
	if def, ok := l.defs[id]; ok {
		return def, nil
	}
	return library.Definition{}, domain.ErrDefinitionNotFound
}
