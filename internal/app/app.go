// Package app wires configuration into the session store, importer and
// notifier shared by the fusion binaries.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/hive-corporation/fusion/internal/adapter/metrics"
	"github.com/hive-corporation/fusion/internal/adapter/notifier"
	"github.com/hive-corporation/fusion/internal/adapter/repository"
	"github.com/hive-corporation/fusion/internal/config"
	"github.com/hive-corporation/fusion/internal/core/ports"
	"github.com/hive-corporation/fusion/internal/core/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

type App struct {
	Sessions *service.SessionService
	Importer *service.Importer

	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	metrics.InitMetrics()
	log.Println("✅ Prometheus metrics initialized")

	a := &App{}

	var repo ports.SessionRepository
	switch cfg.Storage.Backend {
	case "memory":
		repo = repository.NewMemoryRepository()
		log.Println("⚠️  Using in-memory session store (data is lost on restart)")
	default:
		pool, err := pgxpool.New(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		pg := repository.NewPostgresRepository(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to prepare schema: %w", err)
		}
		a.pool = pool
		repo = pg
		log.Println("✅ Postgres session store ready")
	}

	a.Sessions = service.NewSessionService(repo, newNotifier(cfg))
	a.Importer = service.NewImporter(a.Sessions, cfg.ImporterConfig())
	return a, nil
}

// newNotifier returns nil when no Slack token is configured.
func newNotifier(cfg *config.Config) ports.Notifier {
	if cfg.Slack.BotToken == "" {
		log.Println("⚠️  Slack notifier disabled (no SLACK_BOT_TOKEN)")
		return nil
	}
	log.Println("✅ Slack notifier enabled")
	return notifier.NewSlackNotifier(
		cfg.Slack.BotToken,
		cfg.Slack.Channel,
		cfg.Slack.MentionTeam,
		cfg.ResilientClientConfig(),
	)
}

// Close waits for pending notifications and releases the database pool.
func (a *App) Close() {
	a.Sessions.Wait()
	if a.pool != nil {
		a.pool.Close()
	}
}
