package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ersonp/identity-vault/internal/application/handlers"
	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/ports"
	"github.com/ersonp/identity-vault/internal/domain/services"
	"github.com/ersonp/identity-vault/internal/infrastructure/biometric"
	"github.com/ersonp/identity-vault/internal/infrastructure/config"
	"github.com/ersonp/identity-vault/internal/infrastructure/logging"
	"github.com/ersonp/identity-vault/internal/infrastructure/metrics"
	"github.com/ersonp/identity-vault/internal/infrastructure/passwordhash"
	"github.com/ersonp/identity-vault/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config        *config.Config
	Logger        *zap.SugaredLogger
	AuthHandler   *handlers.AuthHandler
	VaultHandler  *handlers.VaultHandler
	ImportHandler *handlers.ImportHandler
	Prompter      *prompter
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically: pending deletes are committed, metrics
// are exported and the database is closed.
func withDeps(ctx context.Context, fn func(*Deps) error) (err error) {
	base, err := basePath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(base)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	repo, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer repo.Close()

	m := metrics.New()
	defer func() {
		if cfg.Metrics.Textfile == "" {
			return
		}
		if werr := m.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logger.Warnw("writing metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
		}
	}()

	live := services.NewLiveQuery(repo, logger)
	catalog := services.NewCatalogService(repo, live, logger)
	records := services.NewRecordService(repo, live, logger)

	if err := handlers.NewInitHandler(logger).Prepare(ctx, repo, catalog); err != nil {
		return err
	}

	deletes := services.NewDeleteController(records, live, cfg.Delete.GracePeriod,
		services.WithDeleteLogger(logger),
		services.WithDeleteMetrics(m),
		services.WithCommitFailureHandler(func(rec entities.RecordWithType, err error) {
			fmt.Fprintf(os.Stderr, "Could not delete record %d (%s); it was restored: %v\n", rec.ID, rec.TypeName, err)
		}),
	)
	defer func() {
		if serr := deletes.Settle(ctx); serr != nil && err == nil {
			err = fmt.Errorf("committing pending deletes: %w", serr)
		}
	}()

	gate := services.NewAuthGate(repo, passwordhash.New(cfg.Auth.Argon2), records, newBiometric(cfg.Biometric, logger),
		services.WithAuthLogger(logger),
		services.WithAuthMetrics(m),
		services.WithLockoutThreshold(cfg.Auth.LockoutThreshold),
		services.WithAutoTrigger(cfg.Biometric.AutoTrigger),
	)

	deps := &Deps{
		Config:        cfg,
		Logger:        logger,
		AuthHandler:   handlers.NewAuthHandler(gate),
		VaultHandler:  handlers.NewVaultHandler(catalog, records, deletes),
		ImportHandler: handlers.NewImportHandler(services.NewImportService(catalog, records, logger)),
		Prompter:      newPrompter(os.Stdin, os.Stdout),
	}

	return fn(deps)
}

// withUnlockedDeps is withDeps behind the authentication gate.
func withUnlockedDeps(ctx context.Context, fn func(*Deps, entities.Session) error) error {
	return withDeps(ctx, func(d *Deps) error {
		if err := unlock(ctx, d.AuthHandler, d.Prompter); err != nil {
			return err
		}
		return fn(d, d.AuthHandler.Session())
	})
}

// newBiometric returns the command-backed capability when one is configured.
func newBiometric(cfg config.BiometricConfig, logger *zap.SugaredLogger) ports.Biometric {
	if len(cfg.Command) == 0 {
		return biometric.Unsupported{}
	}
	return biometric.NewCommand(cfg, logger)
}
