package mocks

import (
	"context"
	"sync"
)

// CredentialStore is an in-memory implementation of ports.CredentialStore.
type CredentialStore struct {
	mu       sync.Mutex
	Password string
	Set      bool
	Err      error
}

// NewCredentialStore creates an empty CredentialStore.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// LoadPassword returns the stored password hash.
func (m *CredentialStore) LoadPassword(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", false, m.Err
	}
	return m.Password, m.Set, nil
}

// SavePassword stores the password hash.
func (m *CredentialStore) SavePassword(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Password = hash
	m.Set = true
	return nil
}

// ClearPassword removes the stored password.
func (m *CredentialStore) ClearPassword(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Password = ""
	m.Set = false
	return nil
}

// PlainHasher is a ports.PasswordHasher that stores passwords with a fixed
// prefix. For tests only.
type PlainHasher struct{}

// Hash returns "plain:" + password.
func (PlainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

// Verify compares password against a Hash result.
func (PlainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "plain:"+password, nil
}
