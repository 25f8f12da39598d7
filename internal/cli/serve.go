package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizpin/internal/config"
	"quizpin/internal/store"
	memorystore "quizpin/internal/store/memory"
	redisstore "quizpin/internal/store/redis"
	transport "quizpin/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the websocket gateway.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the websocket gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, *port)
		},
	}
}

func runServe(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	docStore, err := buildStore(cfg)
	if err != nil {
		return err
	}

	wsHandler := transport.NewWSHandler(docStore)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizpin gateway on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down gateway...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down gateway...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStore picks the document store backend from config. A gateway on the
// memory backend only coordinates its own connections; redis is required for
// multi-process games.
func buildStore(cfg config.Config) (store.Store, error) {
	backend := cfg.Store.Backend
	if backend == "" {
		if cfg.Redis.Addr != "" {
			backend = "redis"
		} else {
			backend = "memory"
		}
	}
	switch backend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := config.TTLDuration(cfg.Store.TTL, 2*time.Hour)
		return redisstore.New(client, ttl), nil
	default:
		return memorystore.New(), nil
	}
}
