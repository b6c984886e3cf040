package handlers

import (
	"context"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/services"
	"github.com/ersonp/identity-vault/internal/infrastructure/parsers"
)

// ImportHandler adds records read from JSON or CSV files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions are services.ImportOptions plus the file format.
type ImportOptions struct {
	Format     string // parsers.FormatAuto, "json" or "csv"
	DryRun     bool
	OnConflict services.ConflictStrategy
}

// Handle imports the records in filePath for a logged-in session.
func (h *ImportHandler) Handle(ctx context.Context, s entities.Session, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	if err := services.RequireLoggedIn(s); err != nil {
		return nil, err
	}

	raw, err := parsers.ReadFile(filePath, opts.Format)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &services.ImportResult{}, nil
	}

	return h.service.Import(ctx, raw, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: opts.OnConflict,
	})
}
