package interfaces

import (
	"context"
	"errors"
	"fmt"

	database "github.com/sebuszqo/FinanceSync/db"
	"github.com/sebuszqo/FinanceSync/internal/config"
	"github.com/sebuszqo/FinanceSync/internal/ledger/application"
	"github.com/sebuszqo/FinanceSync/internal/ledger/infrastructure"
	"github.com/sebuszqo/FinanceSync/internal/logger"
	"github.com/sebuszqo/FinanceSync/internal/plaid"
	"golang.org/x/time/rate"
)

// App holds the handles one process shares across runs. A dry-run App has no
// database and no artifact store.
type App struct {
	Config  *config.Config
	DB      *database.DBService
	Service application.Service

	artifacts infrastructure.ArtifactStore
}

func NewApp(ctx context.Context, cfg *config.Config, opts application.SyncOptions) (*App, error) {
	dialect, err := infrastructure.ParseDialect(cfg.DB.Driver)
	if err != nil {
		return nil, err
	}

	clientOpts := []plaid.Option{plaid.WithRateLimit(rate.Limit(cfg.Plaid.RequestsPerSecond), 1)}
	if cfg.Plaid.BaseURL != "" {
		clientOpts = append(clientOpts, plaid.WithBaseURL(cfg.Plaid.BaseURL))
	}
	client, err := plaid.NewClient(cfg.Plaid.ClientID, cfg.Plaid.Secret, cfg.Plaid.Env, clientOpts...)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		return &App{Config: cfg, Service: application.NewSyncService(client, nil, opts)}, nil
	}

	dbService, err := database.NewDBService(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	var artifacts infrastructure.ArtifactStore
	if cfg.Sync.ArtifactsBucket != "" {
		gcs, err := infrastructure.NewGCSArtifactStore(ctx, cfg.Sync.ArtifactsBucket, cfg.Sync.ArtifactsPrefix)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		artifacts = gcs
	} else {
		artifacts = infrastructure.NewFileArtifactStore(cfg.Sync.ArtifactsDir)
	}

	writer := infrastructure.NewUpsertWriter(infrastructure.NewSQLStore(dbService.DB), dialect, artifacts)
	return &App{
		Config:    cfg,
		DB:        dbService,
		Service:   application.NewSyncService(client, writer, opts),
		artifacts: artifacts,
	}, nil
}

func (a *App) Sources() []application.Source {
	sources := make([]application.Source, len(a.Config.Plaid.InstitutionTokens))
	for i, src := range a.Config.Plaid.InstitutionTokens {
		sources[i] = application.Source{Label: src.Label, AccessToken: src.AccessToken}
	}
	return sources
}

// RunSync checks the store and runs one sync bounded by the configured timeout.
func (a *App) RunSync(ctx context.Context, window application.HistoryWindow) (*application.RunReport, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Config.Sync.Timeout)
	defer cancel()

	if a.DB != nil {
		if health := a.DB.Health(ctx); health["status"] != "up" {
			return nil, fmt.Errorf("database unavailable: %s", health["error"])
		}
	}
	return a.Service.Sync(ctx, a.Sources(), window)
}

func (a *App) Close() error {
	var errs []error
	if closer, ok := a.artifacts.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

// loadConfig reads the config and installs a logger at its level on ctx.
func loadConfig(ctx context.Context, path string) (context.Context, *config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return ctx, nil, err
	}
	log := logger.FromContext(ctx).Level(logger.ParseLevel(cfg.Sync.LogLevel))
	return logger.WithContext(ctx, log), cfg, nil
}
