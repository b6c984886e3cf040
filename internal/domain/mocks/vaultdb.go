// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/ports"
)

// VaultDB is an in-memory implementation of ports.VaultDB. Ids are assigned
// from per-table sequences like SQLite AUTOINCREMENT; ResetRecordTypes
// restarts the type sequence.
type VaultDB struct {
	mu sync.Mutex

	Types   map[int64]entities.RecordType
	Records map[int64]entities.Record

	typeSeq   int64
	recordSeq int64

	// Err is returned by every method when set.
	Err error
	// DeleteErr is returned by DeleteRecord when set.
	DeleteErr error
}

// NewVaultDB creates a new mock VaultDB.
func NewVaultDB() *VaultDB {
	return &VaultDB{
		Types:   make(map[int64]entities.RecordType),
		Records: make(map[int64]entities.Record),
	}
}

// SetErr sets Err under the mock's lock.
func (m *VaultDB) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// SetDeleteErr sets DeleteErr under the mock's lock.
func (m *VaultDB) SetDeleteErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteErr = err
}

// RecordCount returns the number of stored records.
func (m *VaultDB) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records)
}

// HasRecord reports whether a record with id is stored.
func (m *VaultDB) HasRecord(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Records[id]
	return ok
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *VaultDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *VaultDB) Close() error {
	return nil
}

// Record type methods.

// SaveRecordType inserts or replaces a record type.
func (m *VaultDB) SaveRecordType(_ context.Context, t *entities.RecordType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.saveType(t)
	return nil
}

func (m *VaultDB) saveType(t *entities.RecordType) {
	if t.ID == 0 {
		m.typeSeq++
		t.ID = m.typeSeq
	} else if t.ID > m.typeSeq {
		m.typeSeq = t.ID
	}
	m.Types[t.ID] = *t
}

// UpdateRecordType updates an existing record type.
func (m *VaultDB) UpdateRecordType(_ context.Context, t *entities.RecordType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Types[t.ID]; !ok {
		return fmt.Errorf("record type not found: %d", t.ID)
	}
	m.Types[t.ID] = *t
	return nil
}

// DeleteRecordType deletes a record type by id.
func (m *VaultDB) DeleteRecordType(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Types[id]; !ok {
		return fmt.Errorf("record type not found: %d", id)
	}
	for _, r := range m.Records {
		if r.TypeID == id {
			return fmt.Errorf("record type %d is referenced by record %d", id, r.ID)
		}
	}
	delete(m.Types, id)
	return nil
}

// FindRecordType finds a record type by id.
func (m *VaultDB) FindRecordType(_ context.Context, id int64) (*entities.RecordType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	t, ok := m.Types[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// ListRecordTypes lists all record types in id order.
func (m *VaultDB) ListRecordTypes(_ context.Context) ([]entities.RecordType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sortedTypes(func(entities.RecordType) bool { return true }), nil
}

// ResetRecordTypes replaces the catalog with seed and restarts the sequence.
func (m *VaultDB) ResetRecordTypes(_ context.Context, seed []entities.RecordType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	types := make(map[int64]entities.RecordType, len(seed))
	var seq int64
	for _, t := range seed {
		seq++
		t.ID = seq
		types[t.ID] = t
	}
	// Deferred foreign key check at commit.
	for _, r := range m.Records {
		if _, ok := types[r.TypeID]; !ok {
			return fmt.Errorf("committing reset: record %d references missing type %d", r.ID, r.TypeID)
		}
	}
	m.Types = types
	m.typeSeq = seq
	return nil
}

// ListUsedUniqueTypes lists unique record types referenced by a record.
func (m *VaultDB) ListUsedUniqueTypes(_ context.Context) ([]entities.RecordType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	used := m.usedTypeIDs()
	return m.sortedTypes(func(t entities.RecordType) bool {
		return t.IsUnique && used[t.ID]
	}), nil
}

// UniqueTypeInUse reports whether typeID is a unique type with a record.
func (m *VaultDB) UniqueTypeInUse(_ context.Context, typeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	t, ok := m.Types[typeID]
	if !ok || !t.IsUnique {
		return false, nil
	}
	return m.usedTypeIDs()[typeID], nil
}

func (m *VaultDB) usedTypeIDs() map[int64]bool {
	used := make(map[int64]bool, len(m.Records))
	for _, r := range m.Records {
		used[r.TypeID] = true
	}
	return used
}

func (m *VaultDB) sortedTypes(keep func(entities.RecordType) bool) []entities.RecordType {
	result := make([]entities.RecordType, 0, len(m.Types))
	for _, t := range m.Types {
		if keep(t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Record methods.

// SaveRecord inserts or replaces a record.
func (m *VaultDB) SaveRecord(_ context.Context, r *entities.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Types[r.TypeID]; !ok {
		return fmt.Errorf("inserting record: FOREIGN KEY constraint failed (type %d)", r.TypeID)
	}
	if r.ID == 0 {
		m.recordSeq++
		r.ID = m.recordSeq
	} else if r.ID > m.recordSeq {
		m.recordSeq = r.ID
	}
	m.Records[r.ID] = *r
	return nil
}

// UpdateRecord updates an existing record.
func (m *VaultDB) UpdateRecord(_ context.Context, r *entities.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Records[r.ID]; !ok {
		return fmt.Errorf("record %d: %w", r.ID, ports.ErrNotFound)
	}
	m.Records[r.ID] = *r
	return nil
}

// DeleteRecord deletes a record by id.
func (m *VaultDB) DeleteRecord(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.Records[id]; !ok {
		return fmt.Errorf("record %d: %w", id, ports.ErrNotFound)
	}
	delete(m.Records, id)
	return nil
}

// DeleteAllRecords deletes every record.
func (m *VaultDB) DeleteAllRecords(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Records = make(map[int64]entities.Record)
	return nil
}

// FindRecord finds a record by id.
func (m *VaultDB) FindRecord(_ context.Context, id int64) (*entities.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.Records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ListRecords lists all records in id order.
func (m *VaultDB) ListRecords(_ context.Context) ([]entities.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sortedRecords(), nil
}

// ListRecordsWithType lists records joined with their type, in id order.
func (m *VaultDB) ListRecordsWithType(_ context.Context) ([]entities.RecordWithType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	records := m.sortedRecords()
	result := make([]entities.RecordWithType, 0, len(records))
	for _, r := range records {
		t, ok := m.Types[r.TypeID]
		if !ok {
			continue
		}
		result = append(result, entities.RecordWithType{
			Record:       r,
			TypeName:     t.Name,
			TypeIsCustom: t.IsCustom,
		})
	}
	return result, nil
}

func (m *VaultDB) sortedRecords() []entities.Record {
	result := make([]entities.Record, 0, len(m.Records))
	for _, r := range m.Records {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}
