// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ersonp/identity-vault/internal/domain/ports"
	"github.com/ersonp/identity-vault/internal/domain/services"
	"github.com/ersonp/identity-vault/internal/infrastructure/config"
)

// InitHandler handles vault initialization.
type InitHandler struct {
	logger *zap.SugaredLogger
}

// NewInitHandler creates a new init handler.
func NewInitHandler(logger *zap.SugaredLogger) *InitHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &InitHandler{
		logger: logger,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath   string
	DatabasePath string
}

// Handle writes the default config for a new vault under basePath.
func (h *InitHandler) Handle(_ context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("vault already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	h.logger.Infow("vault initialized", "config", config.ConfigFilePath(basePath))
	return &InitResult{
		ConfigPath:   config.ConfigFilePath(basePath),
		DatabasePath: cfg.SQLite.Path,
	}, nil
}

// Prepare creates the schema if needed and seeds the built-in record types
// into an empty catalog. It is safe to run on every start.
func (h *InitHandler) Prepare(ctx context.Context, db ports.VaultDB, catalog *services.CatalogService) error {
	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	if err := catalog.Seed(ctx); err != nil {
		return fmt.Errorf("seeding record types: %w", err)
	}
	return nil
}
