package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizpin/internal/library"
)

// Repository caches whole definitions as JSON blobs in Redis
// (SET quizdef:{id}) and falls back to a loader on cache miss.
type Repository struct {
	client *goredis.Client
	loader library.Loader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewRepository(client *goredis.Client, loader library.Loader, ttl time.Duration) *Repository {
	return &Repository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Repository) GetDefinition(ctx context.Context, id string) (library.Definition, error) {
	key := r.key(id)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var def library.Definition
		if err := json.Unmarshal(raw, &def); err == nil {
			return def, nil
		}
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			var def library.Definition
			if err := json.Unmarshal(raw, &def); err == nil {
				return def, nil
			}
		}

		def, err := r.loader.LoadDefinition(ctx, id)
		if err != nil {
			return library.Definition{}, err
		}

		if encoded, err := json.Marshal(def); err == nil {
			_ = r.client.Set(ctx, key, encoded, r.ttlWithJitter()).Err()
		}
		return def, nil
	})
	if err != nil {
		return library.Definition{}, err
	}
	return result.(library.Definition), nil
}

func (r *Repository) key(id string) string {
	return "quizdef:" + id
}

func (r *Repository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
