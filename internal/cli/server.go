package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intel-quiz-service/internal/app"
	"intel-quiz-service/internal/config"
	"intel-quiz-service/internal/infra/memory"
	pgstore "intel-quiz-service/internal/infra/postgres"
	rediscache "intel-quiz-service/internal/infra/redis"
	transport "intel-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
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

	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := transport.NewHandler(engine)
	wsHandler := transport.NewWSHandler(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/quiz/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildEngine wires the progression engine against Postgres (+ optional
// Redis catalog cache) when configured, or an in-memory store otherwise.
func buildEngine(ctx context.Context, cfg config.Config) (*app.ProgressionEngine, func(), error) {
	if cfg.Postgres.URL == "" {
		catalog, people, err := loadCatalogFile(cfg.Catalog.File)
		if err != nil {
			return nil, nil, err
		}
		store := memory.NewStore(catalog)
		for _, p := range people {
			_ = store.CreatePerson(ctx, p.ID, p.DisplayName)
		}
		log.Printf("postgres not configured, serving %d questions from memory", catalog.Len())
		return app.NewProgressionEngine(store, store, store, store), func() {}, nil
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return nil, nil, err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, nil, err
	}

	store := pgstore.NewStore(pool)
	loader := pgstore.NewCatalogLoader(pool)

	var source app.CatalogSource = loader
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
		source = rediscache.NewCatalogCache(client, loader, ttl)
	}

	engine := app.NewProgressionEngine(source, store, store, store)
	return engine, pool.Close, nil
}
