package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"intel-quiz-service/internal/config"
	"intel-quiz-service/internal/domain"
	pgstore "intel-quiz-service/internal/infra/postgres"
	rediscache "intel-quiz-service/internal/infra/redis"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML seed format: the catalog plus optional people
// rows (people normally come from the registration collaborator).
type catalogFile struct {
	Weeks     []domain.Week     `yaml:"weeks"`
	Questions []domain.Question `yaml:"questions"`
	People    []personSeed      `yaml:"people"`
}

type personSeed struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"name"`
}

// NewSeedCmd loads a YAML catalog (and optional people) into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the question catalog from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			catalog, people, err := loadCatalogFile(file)
			if err != nil {
				return err
			}
			if err := replaceCatalog(ctx, cfg, catalog, people); err != nil {
				return err
			}
			log.Printf("seeded %d weeks, %d questions, %d people",
				len(catalog.Weeks()), catalog.Len(), len(people))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to YAML catalog (defaults to built-in sample)")
	return cmd
}

// loadCatalogFile parses a YAML catalog, falling back to the built-in
// sample when no path is given.
func loadCatalogFile(path string) (domain.Catalog, []personSeed, error) {
	if path == "" {
		return sampleCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, nil, err
	}
	var parsed catalogFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	catalog, err := domain.NewCatalog(parsed.Weeks, parsed.Questions)
	if err != nil {
		return domain.Catalog{}, nil, err
	}
	for i := range parsed.People {
		if parsed.People[i].ID == "" {
			parsed.People[i].ID = uuid.NewString()
		}
	}
	return catalog, parsed.People, nil
}

// replaceCatalog writes the catalog and people to Postgres and drops the
// Redis catalog cache so the next request sees the new content.
func replaceCatalog(ctx context.Context, cfg config.Config, catalog domain.Catalog, people []personSeed) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := pgstore.NewCatalogLoader(pool)
	if err := loader.ReplaceCatalog(ctx, catalog); err != nil {
		return err
	}
	store := pgstore.NewStore(pool)
	for _, p := range people {
		if err := store.CreatePerson(ctx, p.ID, p.DisplayName); err != nil {
			return err
		}
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
		cache := rediscache.NewCatalogCache(client, loader, ttl)
		if err := cache.Invalidate(ctx); err != nil {
			log.Printf("catalog cache invalidation failed: %v", err)
		}
	}
	return nil
}

// sampleCatalog provides minimal demo content; swap in a real catalog via
// seed --file or the spreadsheet importer.
func sampleCatalog() (domain.Catalog, []personSeed, error) {
	catalog, err := domain.NewCatalog(
		[]domain.Week{
			{ID: "week-1", Name: "Week 1: Recon", Order: 1},
			{ID: "week-2", Name: "Week 2: Cipher", Order: 2},
		},
		[]domain.Question{
			{
				ID:          "q1",
				WeekID:      "week-1",
				OrderInWeek: 1,
				Prompt:      "What callsign opens the mission briefing?",
				Hint:        "It is the first letter of the alphabet, spelled out.",
				Answer:      "ALPHA",
				Points:      10,
			},
			{
				ID:          "q2",
				WeekID:      "week-2",
				OrderInWeek: 1,
				Prompt:      "Decode the second callsign.",
				Answer:      "BETA",
				Points:      20,
			},
		},
	)
	if err != nil {
		return domain.Catalog{}, nil, err
	}
	people := []personSeed{{ID: "agent-1", DisplayName: "Agent One"}}
	return catalog, people, nil
}
