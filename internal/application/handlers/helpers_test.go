package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/mocks"
	"github.com/ersonp/identity-vault/internal/domain/services"
)

// fixture wires every handler over in-memory stores. Biometrics are absent.
type fixture struct {
	db      *mocks.VaultDB
	creds   *mocks.CredentialStore
	auth    *AuthHandler
	vault   *VaultHandler
	imports *ImportHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := mocks.NewVaultDB()
	creds := mocks.NewCredentialStore()
	live := services.NewLiveQuery(db, nil)
	catalog := services.NewCatalogService(db, live, nil)
	records := services.NewRecordService(db, live, nil)
	// Long grace: tests commit through Settle.
	deletes := services.NewDeleteController(records, live, time.Hour)
	gate := services.NewAuthGate(creds, mocks.PlainHasher{}, records, nil)

	require.NoError(t, NewInitHandler(nil).Prepare(t.Context(), db, catalog))

	return &fixture{
		db:      db,
		creds:   creds,
		auth:    NewAuthHandler(gate),
		vault:   NewVaultHandler(catalog, records, deletes),
		imports: NewImportHandler(services.NewImportService(catalog, records, nil)),
	}
}

// loggedIn registers password "abc123" and returns the logged-in session.
func (f *fixture) loggedIn(t *testing.T) entities.Session {
	t.Helper()
	state, err := f.auth.HandleStart(t.Context())
	require.NoError(t, err)
	require.Equal(t, entities.StateUnregistered, state)
	require.NoError(t, f.auth.HandleRegister(t.Context(), "abc123", "abc123"))
	s := f.auth.Session()
	require.True(t, s.IsLoggedIn())
	return s
}
