package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/ports"
)

// CatalogService manages record types.
type CatalogService struct {
	db     ports.VaultDB
	live   *LiveQuery
	logger *zap.SugaredLogger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(db ports.VaultDB, live *LiveQuery, logger *zap.SugaredLogger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CatalogService{
		db:     db,
		live:   live,
		logger: logger,
	}
}

// Seed resets the catalog to the built-in types if it is empty.
// It is a no-op for a catalog that already has types.
func (s *CatalogService) Seed(ctx context.Context) error {
	existing, err := s.db.ListRecordTypes(ctx)
	if err != nil {
		return storage("listing record types", err)
	}
	if len(existing) > 0 {
		return nil
	}
	s.logger.Infow("seeding built-in record types", "count", len(entities.BuiltinRecordTypes))
	return s.Reset(ctx)
}

// Reset clears all types, restarts the id sequence, and re-seeds the built-ins.
func (s *CatalogService) Reset(ctx context.Context) error {
	return s.live.Mutate(ctx, "resetting record types", func(ctx context.Context) error {
		if err := s.db.ResetRecordTypes(ctx, entities.BuiltinRecordTypes); err != nil {
			return storage("resetting record types", err)
		}
		return nil
	})
}

// Insert adds a record type, replacing any type with the same id.
func (s *CatalogService) Insert(ctx context.Context, t *entities.RecordType) error {
	if entities.IsBlank(t.Name) {
		return invalid("name", ErrTypeNameEmpty)
	}
	return s.live.Mutate(ctx, "saving record type", func(ctx context.Context) error {
		if err := s.db.SaveRecordType(ctx, t); err != nil {
			return storage("saving record type", err)
		}
		return nil
	})
}

// AddCustom creates a user-defined record type.
func (s *CatalogService) AddCustom(ctx context.Context, name string, unique bool) (*entities.RecordType, error) {
	t := &entities.RecordType{
		Name:     strings.TrimSpace(name),
		IsUnique: unique,
		IsCustom: true,
	}
	if err := s.Insert(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Infow("added custom record type", "type_id", t.ID, "unique", unique)
	return t, nil
}

// Update changes the name or flags of an existing record type.
func (s *CatalogService) Update(ctx context.Context, t *entities.RecordType) error {
	if entities.IsBlank(t.Name) {
		return invalid("name", ErrTypeNameEmpty)
	}
	return s.live.Mutate(ctx, "updating record type", func(ctx context.Context) error {
		if err := s.db.UpdateRecordType(ctx, t); err != nil {
			return storage("updating record type", err)
		}
		return nil
	})
}

// Delete removes a record type. Built-in types are only removed by Reset.
func (s *CatalogService) Delete(ctx context.Context, t entities.RecordType) error {
	if entities.KindOf(t) != entities.KindCustom {
		return invalid("type", ErrBuiltinType)
	}
	return s.live.Mutate(ctx, "deleting record type", func(ctx context.Context) error {
		if err := s.db.DeleteRecordType(ctx, t.ID); err != nil {
			return storage("deleting record type", err)
		}
		return nil
	})
}

// Get returns a record type by id, or nil if not found.
func (s *CatalogService) Get(ctx context.Context, id int64) (*entities.RecordType, error) {
	t, err := s.db.FindRecordType(ctx, id)
	if err != nil {
		return nil, storage("finding record type", err)
	}
	return t, nil
}

// List returns the current snapshot of all record types.
func (s *CatalogService) List(ctx context.Context) ([]entities.RecordType, error) {
	return s.live.Types.Current(ctx)
}

// UsedUniqueTypes returns unique types that already have a record.
func (s *CatalogService) UsedUniqueTypes(ctx context.Context) ([]entities.RecordType, error) {
	return s.live.UsedUniqueTypes.Current(ctx)
}

// Offerable returns the types that may be selected when adding a record:
// every type except unique types already in use.
func (s *CatalogService) Offerable(ctx context.Context) ([]entities.RecordType, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	used, err := s.UsedUniqueTypes(ctx)
	if err != nil {
		return nil, err
	}
	return OfferableTypes(all, used), nil
}

// OfferableTypes removes used unique types from all, preserving order.
func OfferableTypes(all, usedUnique []entities.RecordType) []entities.RecordType {
	used := make(map[int64]struct{}, len(usedUnique))
	for _, t := range usedUnique {
		used[t.ID] = struct{}{}
	}
	offerable := make([]entities.RecordType, 0, len(all))
	for _, t := range all {
		if _, ok := used[t.ID]; ok {
			continue
		}
		offerable = append(offerable, t)
	}
	return offerable
}

