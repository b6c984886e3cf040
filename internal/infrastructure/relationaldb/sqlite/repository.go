// Package sqlite provides a SQLite implementation of the VaultDB and
// CredentialStore ports.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/ports"
	"github.com/ersonp/identity-vault/internal/infrastructure/config"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Repository implements ports.VaultDB and ports.CredentialStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// A single connection serializes writers and keeps the per-connection
	// pragmas (foreign keys) in effect for every statement.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite database: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// dsn appends the pragmas every connection needs.
func dsn(path string) string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Record types (built-in catalog plus user-defined types)
	CREATE TABLE IF NOT EXISTS record_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		is_unique INTEGER NOT NULL DEFAULT 0,
		is_custom INTEGER NOT NULL DEFAULT 0
	);

	-- Records (identity data). The type reference is checked at commit so a
	-- catalog reset can clear and re-seed types inside one transaction.
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type_id INTEGER NOT NULL REFERENCES record_types(id) DEFERRABLE INITIALLY DEFERRED,
		value TEXT NOT NULL,
		attr1 TEXT NOT NULL DEFAULT '',
		attr2 TEXT NOT NULL DEFAULT '',
		attr3 TEXT NOT NULL DEFAULT '',
		attr4 TEXT NOT NULL DEFAULT '',
		attr5 TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_records_type ON records(type_id);

	-- Opaque key-value credentials (stored password hash)
	CREATE TABLE IF NOT EXISTS credentials (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveRecordType inserts a record type, replacing any entry with the same id.
func (r *Repository) SaveRecordType(ctx context.Context, t *entities.RecordType) error {
	return saveRecordType(ctx, r.db, t)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveRecordType(ctx context.Context, ex execer, t *entities.RecordType) error {
	if t.ID == 0 {
		query := `INSERT INTO record_types (name, is_unique, is_custom) VALUES (?, ?, ?)`
		result, err := ex.ExecContext(ctx, query, t.Name, t.IsUnique, t.IsCustom)
		if err != nil {
			return fmt.Errorf("saving record type: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading record type id: %w", err)
		}
		t.ID = id
		return nil
	}

	query := `
		INSERT INTO record_types (id, name, is_unique, is_custom)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_unique = excluded.is_unique,
			is_custom = excluded.is_custom
	`
	if _, err := ex.ExecContext(ctx, query, t.ID, t.Name, t.IsUnique, t.IsCustom); err != nil {
		return fmt.Errorf("saving record type: %w", err)
	}
	return nil
}

// UpdateRecordType updates an existing record type.
func (r *Repository) UpdateRecordType(ctx context.Context, t *entities.RecordType) error {
	query := `UPDATE record_types SET name = ?, is_unique = ?, is_custom = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, t.Name, t.IsUnique, t.IsCustom, t.ID)
	if err != nil {
		return fmt.Errorf("updating record type: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("record type not found: %d", t.ID)
	}
	return nil
}

// DeleteRecordType deletes a record type by id. Fails if records still reference it.
func (r *Repository) DeleteRecordType(ctx context.Context, id int64) error {
	query := `DELETE FROM record_types WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting record type: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("record type not found: %d", id)
	}
	return nil
}

// FindRecordType finds a record type by id.
func (r *Repository) FindRecordType(ctx context.Context, id int64) (*entities.RecordType, error) {
	query := `SELECT id, name, is_unique, is_custom FROM record_types WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var t entities.RecordType
	err := row.Scan(&t.ID, &t.Name, &t.IsUnique, &t.IsCustom)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning record type: %w", err)
	}
	return &t, nil
}

// ListRecordTypes lists all record types in insertion order.
func (r *Repository) ListRecordTypes(ctx context.Context) ([]entities.RecordType, error) {
	query := `SELECT id, name, is_unique, is_custom FROM record_types ORDER BY id ASC`
	return r.queryRecordTypes(ctx, query)
}

// ResetRecordTypes clears all types, restarts the id sequence and inserts seed.
func (r *Repository) ResetRecordTypes(ctx context.Context, seed []entities.RecordType) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reset: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM record_types`); err != nil {
		return fmt.Errorf("clearing record types: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'record_types'`); err != nil {
		return fmt.Errorf("resetting record type sequence: %w", err)
	}

	for i := range seed {
		t := seed[i]
		t.ID = 0
		if err := saveRecordType(ctx, tx, &t); err != nil {
			return fmt.Errorf("seeding record type %s: %w", t.Name, err)
		}
	}

	// Checked here rather than left to the deferred constraint, so a failed
	// reset rolls back instead of leaving the transaction open.
	var orphans int
	orphanQuery := `
		SELECT COUNT(*) FROM records r
		LEFT JOIN record_types t ON t.id = r.type_id
		WHERE t.id IS NULL
	`
	if err := tx.QueryRowContext(ctx, orphanQuery).Scan(&orphans); err != nil {
		return fmt.Errorf("checking records after reset: %w", err)
	}
	if orphans > 0 {
		return fmt.Errorf("%d records reference record types removed by the reset", orphans)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reset: %w", err)
	}
	return nil
}

// ListUsedUniqueTypes lists unique record types referenced by at least one record.
func (r *Repository) ListUsedUniqueTypes(ctx context.Context) ([]entities.RecordType, error) {
	query := `
		SELECT DISTINCT t.id, t.name, t.is_unique, t.is_custom
		FROM record_types t
		INNER JOIN records r ON t.id = r.type_id
		WHERE t.is_unique = 1
		ORDER BY t.id ASC
	`
	return r.queryRecordTypes(ctx, query)
}

// UniqueTypeInUse reports whether typeID is unique and already has a record.
func (r *Repository) UniqueTypeInUse(ctx context.Context, typeID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM record_types t
			INNER JOIN records r ON t.id = r.type_id
			WHERE t.id = ? AND t.is_unique = 1
		)
	`
	var inUse bool
	if err := r.db.QueryRowContext(ctx, query, typeID).Scan(&inUse); err != nil {
		return false, fmt.Errorf("checking unique type: %w", err)
	}
	return inUse, nil
}

// queryRecordTypes is a helper to execute record type queries.
func (r *Repository) queryRecordTypes(ctx context.Context, query string, args ...any) ([]entities.RecordType, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying record types: %w", err)
	}
	defer rows.Close()

	types := make([]entities.RecordType, 0, len(entities.BuiltinRecordTypes))
	for rows.Next() {
		var t entities.RecordType
		if err := rows.Scan(&t.ID, &t.Name, &t.IsUnique, &t.IsCustom); err != nil {
			return nil, fmt.Errorf("scanning record type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// SaveRecord inserts a record, replacing any record with the same id.
func (r *Repository) SaveRecord(ctx context.Context, rec *entities.Record) error {
	if rec.ID == 0 {
		query := `
			INSERT INTO records (type_id, value, attr1, attr2, attr3, attr4, attr5)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		result, err := r.db.ExecContext(ctx, query,
			rec.TypeID, rec.Value, rec.Attr1, rec.Attr2, rec.Attr3, rec.Attr4, rec.Attr5)
		if err != nil {
			return fmt.Errorf("saving record: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading record id: %w", err)
		}
		rec.ID = id
		return nil
	}

	query := `
		INSERT INTO records (id, type_id, value, attr1, attr2, attr3, attr4, attr5)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type_id = excluded.type_id,
			value = excluded.value,
			attr1 = excluded.attr1,
			attr2 = excluded.attr2,
			attr3 = excluded.attr3,
			attr4 = excluded.attr4,
			attr5 = excluded.attr5
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.TypeID, rec.Value, rec.Attr1, rec.Attr2, rec.Attr3, rec.Attr4, rec.Attr5)
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// UpdateRecord updates an existing record.
func (r *Repository) UpdateRecord(ctx context.Context, rec *entities.Record) error {
	query := `
		UPDATE records
		SET type_id = ?, value = ?, attr1 = ?, attr2 = ?, attr3 = ?, attr4 = ?, attr5 = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		rec.TypeID, rec.Value, rec.Attr1, rec.Attr2, rec.Attr3, rec.Attr4, rec.Attr5, rec.ID)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("record %d: %w", rec.ID, ports.ErrNotFound)
	}
	return nil
}

// DeleteRecord deletes a record by id.
func (r *Repository) DeleteRecord(ctx context.Context, id int64) error {
	query := `DELETE FROM records WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("record %d: %w", id, ports.ErrNotFound)
	}
	return nil
}

// DeleteAllRecords deletes every record.
func (r *Repository) DeleteAllRecords(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("deleting all records: %w", err)
	}
	return nil
}

// FindRecord finds a record by id.
func (r *Repository) FindRecord(ctx context.Context, id int64) (*entities.Record, error) {
	query := `
		SELECT id, type_id, value, attr1, attr2, attr3, attr4, attr5
		FROM records
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var rec entities.Record
	err := row.Scan(
		&rec.ID,
		&rec.TypeID,
		&rec.Value,
		&rec.Attr1,
		&rec.Attr2,
		&rec.Attr3,
		&rec.Attr4,
		&rec.Attr5,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning record: %w", err)
	}
	return &rec, nil
}

// ListRecords lists all records in id order.
func (r *Repository) ListRecords(ctx context.Context) ([]entities.Record, error) {
	query := `
		SELECT id, type_id, value, attr1, attr2, attr3, attr4, attr5
		FROM records
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := make([]entities.Record, 0, 16)
	for rows.Next() {
		var rec entities.Record
		if err := rows.Scan(
			&rec.ID,
			&rec.TypeID,
			&rec.Value,
			&rec.Attr1,
			&rec.Attr2,
			&rec.Attr3,
			&rec.Attr4,
			&rec.Attr5,
		); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListRecordsWithType lists all records joined with their type, in id order.
func (r *Repository) ListRecordsWithType(ctx context.Context) ([]entities.RecordWithType, error) {
	query := `
		SELECT r.id, r.type_id, r.value, r.attr1, r.attr2, r.attr3, r.attr4, r.attr5,
			t.name, t.is_custom
		FROM records r
		INNER JOIN record_types t ON t.id = r.type_id
		ORDER BY r.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying records with type: %w", err)
	}
	defer rows.Close()

	records := make([]entities.RecordWithType, 0, 16)
	for rows.Next() {
		var rec entities.RecordWithType
		if err := rows.Scan(
			&rec.ID,
			&rec.TypeID,
			&rec.Value,
			&rec.Attr1,
			&rec.Attr2,
			&rec.Attr3,
			&rec.Attr4,
			&rec.Attr5,
			&rec.TypeName,
			&rec.TypeIsCustom,
		); err != nil {
			return nil, fmt.Errorf("scanning record with type: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
