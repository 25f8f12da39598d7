package cli

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizpin/internal/config"
	"quizpin/internal/domain"
	"quizpin/internal/game"
	"quizpin/internal/library"
	memorylib "quizpin/internal/library/memory"
	pglib "quizpin/internal/library/postgres"
	redislib "quizpin/internal/library/redis"
)

// NewHostCmd creates a fresh session document at a PIN from a library
// definition, ready for players to join.
func NewHostCmd(configPath *string) *cobra.Command {
	var quizID string
	cmd := &cobra.Command{
		Use:   "host <pin>",
		Short: "Create a quiz session at the given PIN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd.Context(), *configPath, quizID, args[0])
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "library definition id (omit for the built-in sample)")
	return cmd
}

func runHost(ctx context.Context, configPath, quizID, pin string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	docStore, err := buildStore(cfg)
	if err != nil {
		return err
	}

	def, err := loadDefinition(ctx, cfg, quizID)
	if err != nil {
		return err
	}

	mutator := game.NewMutator(docStore)
	if err := mutator.CreateSession(ctx, pin, def.Questions); err != nil {
		return err
	}
	log.Printf("session %q hosted with %d questions (quiz %q)", pin, len(def.Questions), def.ID)
	return nil
}

func loadDefinition(ctx context.Context, cfg config.Config, quizID string) (library.Definition, error) {
	ttl := config.TTLDuration(cfg.Library.TTL, 10*time.Minute)

	var loader library.Loader = memorylib.NewStaticLoader(sampleDefinitions())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return library.Definition{}, err
		}
		defer pool.Close()
		loader = pglib.NewLoader(pool)
	}

	var repo library.Repository
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		repo = redislib.NewRepository(client, loader, ttl)
	} else {
		repo = memorylib.NewRepository(loader, ttl)
	}

	if quizID == "" {
		quizID = "sample"
	}
	return repo.GetDefinition(ctx, quizID)
}

// sampleDefinitions keeps `host` usable without Postgres.
func sampleDefinitions() map[string]library.Definition {
	return map[string]library.Definition{
		"sample": {
			ID:    "sample",
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					Title:       "Round 1",
					Body:        "What is 2 + 2?",
					Answers:     []string{"3", "4", "5", "22"},
					RightAnswer: 1,
				},
				{
					Title:       "Round 2",
					Body:        "Which planet is closest to the sun?",
					Answers:     []string{"Venus", "Earth", "Mercury", "Mars"},
					RightAnswer: 2,
				},
			},
		},
	}
}
