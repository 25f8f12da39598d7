package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"quizpin/internal/domain"
	"quizpin/internal/library"
	memorylib "quizpin/internal/library/memory"
)

func TestRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	loader := &countingLoader{
		Loader: memorylib.NewStaticLoader(map[string]library.Definition{
			"general-knowledge": sampleDefinition(),
		}),
	}
	repo := NewRepository(client, loader, time.Minute)

	def, err := repo.GetDefinition(context.Background(), "general-knowledge")
	if err != nil {
		t.Fatalf("get definition: %v", err)
	}
	if len(def.Questions) != 1 || def.Questions[0].RightAnswer != 1 {
		t.Fatalf("unexpected definition %+v", def)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quizdef:general-knowledge") {
		t.Fatalf("expected cached blob in redis")
	}

	// Second call should hit the cache, loader not incremented.
	if _, err := repo.GetDefinition(context.Background(), "general-knowledge"); err != nil {
		t.Fatalf("get definition 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	library.Loader
	calls int
}

func (l *countingLoader) LoadDefinition(ctx context.Context, id string) (library.Definition, error) {
	l.calls++
	return l.Loader.LoadDefinition(ctx, id)
}

func sampleDefinition() library.Definition {
	return library.Definition{
		ID:    "general-knowledge",
		Title: "General knowledge",
		Questions: []domain.Question{
			{
				Title:       "Round 1",
				Body:        "What is 2 + 2?",
				Answers:     []string{"3", "4", "5"},
				RightAnswer: 1,
			},
		},
	}
}
