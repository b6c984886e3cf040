package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/ports"
	"github.com/ersonp/identity-vault/internal/infrastructure/config"
)

var (
	_ ports.VaultDB         = (*Repository)(nil)
	_ ports.CredentialStore = (*Repository)(nil)
)

// setupTestRepo creates a file-backed SQLite repository in a temp dir.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "vault.db")})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"/tmp/v.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		dsn("/tmp/v.db"))
	assert.Contains(t, dsn("file:v.db?mode=rwc"), "mode=rwc&_pragma=foreign_keys(1)")
}

func TestRepository_Path(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	repo, err := NewRepository(config.SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer repo.Close()

	assert.Equal(t, path, repo.Path())
}

// RepositorySuite runs against a freshly seeded database per test.
type RepositorySuite struct {
	suite.Suite
	ctx  context.Context
	repo *Repository
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = setupTestRepo(s.T())
	s.Require().NoError(s.repo.ResetRecordTypes(s.ctx, entities.BuiltinRecordTypes))
}

func (s *RepositorySuite) addRecord(typeID int64, value string) entities.Record {
	rec := entities.Record{TypeID: typeID, Value: value}
	s.Require().NoError(s.repo.SaveRecord(s.ctx, &rec))
	return rec
}

func (s *RepositorySuite) TestEnsureSchema() {
	for _, table := range []string{"record_types", "records", "credentials"} {
		var count int
		err := s.repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		s.Require().NoError(err)
		s.Equal(1, count, "table %s should exist", table)
	}

	// Idempotent.
	s.Require().NoError(s.repo.EnsureSchema(s.ctx))
}

func (s *RepositorySuite) TestForeignKeysEnforced() {
	rec := entities.Record{TypeID: 99, Value: "orphan"}
	err := s.repo.SaveRecord(s.ctx, &rec)
	s.Require().Error(err)
	s.Contains(err.Error(), "FOREIGN KEY")
}

func (s *RepositorySuite) TestResetSeedsBuiltins() {
	types, err := s.repo.ListRecordTypes(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(types, 12)

	for i, t := range types {
		want := entities.BuiltinRecordTypes[i]
		s.Equal(int64(i+1), t.ID)
		s.Equal(want.Name, t.Name)
		s.Equal(want.IsUnique, t.IsUnique)
		s.False(t.IsCustom)
	}
}

func (s *RepositorySuite) TestResetRestartsSequence() {
	custom := entities.RecordType{Name: "Paspor", IsCustom: true}
	s.Require().NoError(s.repo.SaveRecordType(s.ctx, &custom))
	s.Equal(int64(13), custom.ID)

	first, err := s.repo.ListRecordTypes(s.ctx)
	s.Require().NoError(err)
	s.Len(first, 13)

	s.Require().NoError(s.repo.ResetRecordTypes(s.ctx, entities.BuiltinRecordTypes))
	s.Require().NoError(s.repo.ResetRecordTypes(s.ctx, entities.BuiltinRecordTypes))

	types, err := s.repo.ListRecordTypes(s.ctx)
	s.Require().NoError(err)
	s.Len(types, 12)
	s.Equal(int64(12), types[11].ID)

	again := entities.RecordType{Name: "SIM", IsCustom: true}
	s.Require().NoError(s.repo.SaveRecordType(s.ctx, &again))
	s.Equal(int64(13), again.ID)
}

func (s *RepositorySuite) TestResetKeepsBuiltinRecords() {
	s.addRecord(int64(entities.KindKTP), "3201234567890001")

	s.Require().NoError(s.repo.ResetRecordTypes(s.ctx, entities.BuiltinRecordTypes))

	recs, err := s.repo.ListRecordsWithType(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal("KTP", recs[0].TypeName)
}

func (s *RepositorySuite) TestResetRollsBackOnOrphans() {
	custom := entities.RecordType{Name: "Paspor", IsCustom: true}
	s.Require().NoError(s.repo.SaveRecordType(s.ctx, &custom))
	s.addRecord(custom.ID, "A1234567")

	err := s.repo.ResetRecordTypes(s.ctx, entities.BuiltinRecordTypes)
	s.Require().Error(err)

	types, err := s.repo.ListRecordTypes(s.ctx)
	s.Require().NoError(err)
	s.Len(types, 13, "failed reset must leave the catalog untouched")
}

func (s *RepositorySuite) TestRecordTypeUpsertAndUpdate() {
	s.Require().NoError(s.repo.SaveRecordType(s.ctx, &entities.RecordType{ID: 2, Name: "Nomor HP"}))

	t, err := s.repo.FindRecordType(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal("Nomor HP", t.Name)

	t.IsUnique = true
	s.Require().NoError(s.repo.UpdateRecordType(s.ctx, t))
	t, err = s.repo.FindRecordType(s.ctx, 2)
	s.Require().NoError(err)
	s.True(t.IsUnique)

	s.Error(s.repo.UpdateRecordType(s.ctx, &entities.RecordType{ID: 99, Name: "Ghost"}))

	missing, err := s.repo.FindRecordType(s.ctx, 99)
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *RepositorySuite) TestDeleteRecordType() {
	custom := entities.RecordType{Name: "Paspor", IsCustom: true}
	s.Require().NoError(s.repo.SaveRecordType(s.ctx, &custom))
	rec := s.addRecord(custom.ID, "A1234567")

	s.Error(s.repo.DeleteRecordType(s.ctx, custom.ID), "referenced type must not be deleted")

	s.Require().NoError(s.repo.DeleteRecord(s.ctx, rec.ID))
	s.Require().NoError(s.repo.DeleteRecordType(s.ctx, custom.ID))
	s.Error(s.repo.DeleteRecordType(s.ctx, custom.ID))
}

func (s *RepositorySuite) TestUsedUniqueTypes() {
	used, err := s.repo.ListUsedUniqueTypes(s.ctx)
	s.Require().NoError(err)
	s.Empty(used)

	s.addRecord(int64(entities.KindKTP), "3201234567890001")
	s.addRecord(int64(entities.KindPhone), "081234567890")
	s.addRecord(int64(entities.KindPhone), "081298765432")
	// A duplicate written past the service check still lists the type once.
	s.addRecord(int64(entities.KindKTP), "3201234567890002")

	used, err = s.repo.ListUsedUniqueTypes(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(used, 1)
	s.Equal("KTP", used[0].Name)

	inUse, err := s.repo.UniqueTypeInUse(s.ctx, int64(entities.KindKTP))
	s.Require().NoError(err)
	s.True(inUse)

	inUse, err = s.repo.UniqueTypeInUse(s.ctx, int64(entities.KindPhone))
	s.Require().NoError(err)
	s.False(inUse, "non-unique types are never in use")

	inUse, err = s.repo.UniqueTypeInUse(s.ctx, int64(entities.KindTaxID))
	s.Require().NoError(err)
	s.False(inUse)
}

func (s *RepositorySuite) TestRecordCRUD() {
	rec := entities.Record{
		TypeID: int64(entities.KindBankAccount),
		Value:  "1234567890",
		Attr1:  "BCA",
		Attr5:  "x",
	}
	s.Require().NoError(s.repo.SaveRecord(s.ctx, &rec))
	s.Equal(int64(1), rec.ID)

	got, err := s.repo.FindRecord(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec, *got)

	rec.Value = "0987654321"
	rec.Attr1 = "Mandiri"
	s.Require().NoError(s.repo.UpdateRecord(s.ctx, &rec))
	got, err = s.repo.FindRecord(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("Mandiri", got.Attr1)

	// Upsert by id.
	rec.Value = "1111"
	s.Require().NoError(s.repo.SaveRecord(s.ctx, &rec))
	all, err := s.repo.ListRecords(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("1111", all[0].Value)

	s.Require().NoError(s.repo.DeleteRecord(s.ctx, rec.ID))
	s.ErrorIs(s.repo.DeleteRecord(s.ctx, rec.ID), ports.ErrNotFound)
	s.ErrorIs(s.repo.UpdateRecord(s.ctx, &rec), ports.ErrNotFound)

	got, err = s.repo.FindRecord(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *RepositorySuite) TestRecordIDsAreNotReused() {
	a := s.addRecord(int64(entities.KindPhone), "1")
	s.Require().NoError(s.repo.DeleteRecord(s.ctx, a.ID))

	b := s.addRecord(int64(entities.KindPhone), "2")
	s.Greater(b.ID, a.ID)
}

func (s *RepositorySuite) TestListRecordsWithType() {
	custom := entities.RecordType{Name: "Paspor", IsCustom: true}
	s.Require().NoError(s.repo.SaveRecordType(s.ctx, &custom))

	s.addRecord(int64(entities.KindEmail), "budi@example.com")
	s.addRecord(custom.ID, "A1234567")

	recs, err := s.repo.ListRecordsWithType(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)

	s.Equal("Alamat Email", recs[0].TypeName)
	s.False(recs[0].TypeIsCustom)
	s.Equal(entities.KindEmail, recs[0].Kind())
	s.Equal("Paspor", recs[1].TypeName)
	s.True(recs[1].TypeIsCustom)
	s.Equal(entities.KindCustom, recs[1].Kind())
}

func (s *RepositorySuite) TestDeleteAllRecords() {
	s.addRecord(int64(entities.KindKTP), "1")
	s.addRecord(int64(entities.KindPhone), "2")

	s.Require().NoError(s.repo.DeleteAllRecords(s.ctx))

	recs, err := s.repo.ListRecords(s.ctx)
	s.Require().NoError(err)
	s.Empty(recs)

	types, err := s.repo.ListRecordTypes(s.ctx)
	s.Require().NoError(err)
	s.Len(types, 12, "deleting records keeps the catalog")
}

func (s *RepositorySuite) TestCredentials() {
	_, ok, err := s.repo.LoadPassword(s.ctx)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.repo.SavePassword(s.ctx, "hash-1"))
	s.Require().NoError(s.repo.SavePassword(s.ctx, "hash-2"))

	hash, ok, err := s.repo.LoadPassword(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("hash-2", hash)

	s.Require().NoError(s.repo.ClearPassword(s.ctx))
	s.Require().NoError(s.repo.ClearPassword(s.ctx))

	_, ok, err = s.repo.LoadPassword(s.ctx)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RepositorySuite) TestPersistsAcrossReopen() {
	s.addRecord(int64(entities.KindKTP), "3201234567890001")
	s.Require().NoError(s.repo.SavePassword(s.ctx, "hash"))
	path := s.repo.Path()
	s.Require().NoError(s.repo.Close())

	reopened, err := NewRepository(config.SQLiteConfig{Path: path})
	s.Require().NoError(err)
	s.repo = reopened
	s.T().Cleanup(func() { reopened.Close() })

	recs, err := reopened.ListRecordsWithType(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal("KTP", recs[0].TypeName)

	_, ok, err := reopened.LoadPassword(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
}
