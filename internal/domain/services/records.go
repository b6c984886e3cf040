package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/ports"
)

// demoRecords are inserted by Prepopulate to exercise a fresh vault.
// Type ids assume a freshly seeded catalog.
var demoRecords = []entities.Record{
	{TypeID: int64(entities.KindKTP), Value: "3201234567890001"},
	{TypeID: int64(entities.KindPhone), Value: "081234567890"},
	{TypeID: int64(entities.KindAddress), Value: "Jl. Merdeka No. 1, Bandung"},
	{TypeID: int64(entities.KindBankAccount), Value: "1234567890", Attr1: "BCA"},
	{TypeID: int64(entities.KindEmail), Value: "budi@example.com"},
}

// RecordService manages identity records.
type RecordService struct {
	db     ports.VaultDB
	live   *LiveQuery
	logger *zap.SugaredLogger
}

// NewRecordService creates a new RecordService.
func NewRecordService(db ports.VaultDB, live *LiveQuery, logger *zap.SugaredLogger) *RecordService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RecordService{
		db:     db,
		live:   live,
		logger: logger,
	}
}

// Add validates and inserts a new record. A record of a unique type that is
// already in use is rejected; the check and the insert run as one write.
func (s *RecordService) Add(ctx context.Context, rec *entities.Record) error {
	if rec.TypeID <= 0 {
		return invalid("type", ErrUnknownType)
	}
	if entities.IsBlank(rec.Value) {
		return invalid("value", ErrValueEmpty)
	}

	return s.live.Mutate(ctx, "adding record", func(ctx context.Context) error {
		if err := s.checkUnique(ctx, rec.TypeID); err != nil {
			return err
		}
		rec.ID = 0
		if err := s.db.SaveRecord(ctx, rec); err != nil {
			return storage("saving record", err)
		}
		s.logger.Debugw("added record", "record_id", rec.ID, "type_id", rec.TypeID)
		return nil
	})
}

// CheckUnique returns a ValidationError if typeID is unknown, or is a unique
// type that already has a record.
func (s *RecordService) CheckUnique(ctx context.Context, typeID int64) error {
	return s.checkUnique(ctx, typeID)
}

func (s *RecordService) checkUnique(ctx context.Context, typeID int64) error {
	t, err := s.db.FindRecordType(ctx, typeID)
	if err != nil {
		return storage("finding record type", err)
	}
	if t == nil {
		return invalid("type", ErrUnknownType)
	}
	if !t.IsUnique {
		return nil
	}
	inUse, err := s.db.UniqueTypeInUse(ctx, typeID)
	if err != nil {
		return storage("checking unique type", err)
	}
	if inUse {
		return invalid("type", ErrUniqueTypeInUse)
	}
	return nil
}

// Insert stores a record as-is, replacing any record with the same id.
// It performs no uniqueness check; use Add for user-entered records.
func (s *RecordService) Insert(ctx context.Context, rec *entities.Record) error {
	return s.live.Mutate(ctx, "saving record", func(ctx context.Context) error {
		if err := s.db.SaveRecord(ctx, rec); err != nil {
			return storage("saving record", err)
		}
		return nil
	})
}

// Update edits the value and attributes of an existing record. The type of a
// record never changes after creation.
func (s *RecordService) Update(ctx context.Context, rec *entities.Record) error {
	if entities.IsBlank(rec.Value) {
		return invalid("value", ErrValueEmpty)
	}

	return s.live.Mutate(ctx, "updating record", func(ctx context.Context) error {
		existing, err := s.db.FindRecord(ctx, rec.ID)
		if err != nil {
			return storage("finding record", err)
		}
		if existing == nil {
			return invalid("id", ErrRecordNotFound)
		}
		if existing.TypeID != rec.TypeID {
			return invalid("type", ErrTypeImmutable)
		}
		if err := s.db.UpdateRecord(ctx, rec); err != nil {
			return storage("updating record", err)
		}
		return nil
	})
}

// DeleteByID removes a record immediately.
func (s *RecordService) DeleteByID(ctx context.Context, id int64) error {
	return s.live.Mutate(ctx, "deleting record", func(ctx context.Context) error {
		if err := s.db.DeleteRecord(ctx, id); err != nil {
			return storage("deleting record", err)
		}
		s.logger.Debugw("deleted record", "record_id", id)
		return nil
	})
}

// Delete removes the given record immediately.
func (s *RecordService) Delete(ctx context.Context, rec entities.Record) error {
	return s.DeleteByID(ctx, rec.ID)
}

// DeleteAll removes every record.
func (s *RecordService) DeleteAll(ctx context.Context) error {
	return s.live.Mutate(ctx, "deleting all records", func(ctx context.Context) error {
		if err := s.db.DeleteAllRecords(ctx); err != nil {
			return storage("deleting all records", err)
		}
		return nil
	})
}

// Get returns a record by id, or nil if not found.
func (s *RecordService) Get(ctx context.Context, id int64) (*entities.Record, error) {
	rec, err := s.db.FindRecord(ctx, id)
	if err != nil {
		return nil, storage("finding record", err)
	}
	return rec, nil
}

// List returns the current snapshot of all records.
func (s *RecordService) List(ctx context.Context) ([]entities.Record, error) {
	return s.live.Records.Current(ctx)
}

// ListWithType returns the current snapshot of records joined with type names.
func (s *RecordService) ListWithType(ctx context.Context) ([]entities.RecordWithType, error) {
	return s.live.RecordsWithType.Current(ctx)
}

// Prepopulate inserts demonstration records. Intended for development builds.
func (s *RecordService) Prepopulate(ctx context.Context) error {
	return s.live.Mutate(ctx, "prepopulating records", func(ctx context.Context) error {
		return s.prepopulate(ctx)
	})
}

func (s *RecordService) prepopulate(ctx context.Context) error {
	for i := range demoRecords {
		rec := demoRecords[i]
		if err := s.db.SaveRecord(ctx, &rec); err != nil {
			return storage("saving demo record", err)
		}
	}
	return nil
}

// DebugPopulate wipes records, resets the catalog and inserts demonstration
// records in one write.
func (s *RecordService) DebugPopulate(ctx context.Context) error {
	return s.live.Mutate(ctx, "populating demo vault", func(ctx context.Context) error {
		if err := s.db.DeleteAllRecords(ctx); err != nil {
			return storage("deleting all records", err)
		}
		if err := s.db.ResetRecordTypes(ctx, entities.BuiltinRecordTypes); err != nil {
			return storage("resetting record types", err)
		}
		return s.prepopulate(ctx)
	})
}
