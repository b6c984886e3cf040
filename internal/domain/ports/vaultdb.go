package ports

import (
	"context"
	"errors"

	"github.com/ersonp/identity-vault/internal/domain/entities"
)

// ErrNotFound is wrapped by operations whose target row does not exist.
var ErrNotFound = errors.New("not found")

// VaultDB defines the persistence contract for records and record types.
// Implementations must apply each mutation atomically so readers never observe
// a partially-applied write.
type VaultDB interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Record type operations

	// SaveRecordType inserts a record type, replacing any existing entry with the
	// same id. A zero id is assigned the next value from the id sequence.
	SaveRecordType(ctx context.Context, t *entities.RecordType) error

	// UpdateRecordType updates name and flags of an existing record type.
	UpdateRecordType(ctx context.Context, t *entities.RecordType) error

	// DeleteRecordType deletes a record type by id.
	DeleteRecordType(ctx context.Context, id int64) error

	// FindRecordType finds a record type by id. Returns nil if not found.
	FindRecordType(ctx context.Context, id int64) (*entities.RecordType, error)

	// ListRecordTypes lists all record types in insertion order.
	ListRecordTypes(ctx context.Context) ([]entities.RecordType, error)

	// ResetRecordTypes clears all record types, restarts the id sequence and
	// inserts the given seed, in one transaction.
	ResetRecordTypes(ctx context.Context, seed []entities.RecordType) error

	// ListUsedUniqueTypes lists unique record types referenced by at least one record.
	ListUsedUniqueTypes(ctx context.Context) ([]entities.RecordType, error)

	// UniqueTypeInUse reports whether typeID is a unique type that already has a record.
	UniqueTypeInUse(ctx context.Context, typeID int64) (bool, error)

	// Record operations

	// SaveRecord inserts a record, replacing any existing record with the same id.
	// A zero id is assigned the next value from the id sequence.
	SaveRecord(ctx context.Context, r *entities.Record) error

	// UpdateRecord updates value and attributes of an existing record.
	UpdateRecord(ctx context.Context, r *entities.Record) error

	// DeleteRecord deletes a record by id. A missing id yields an error
	// wrapping ErrNotFound.
	DeleteRecord(ctx context.Context, id int64) error

	// DeleteAllRecords deletes every record.
	DeleteAllRecords(ctx context.Context) error

	// FindRecord finds a record by id. Returns nil if not found.
	FindRecord(ctx context.Context, id int64) (*entities.Record, error)

	// ListRecords lists all records in id order.
	ListRecords(ctx context.Context) ([]entities.Record, error)

	// ListRecordsWithType lists all records joined with their type name, in id order.
	ListRecordsWithType(ctx context.Context) ([]entities.RecordWithType, error)
}
