package ports

import "context"

// CredentialStore holds the single stored-password value of the vault.
type CredentialStore interface {
	// LoadPassword returns the stored password hash and whether one exists.
	LoadPassword(ctx context.Context) (string, bool, error)

	// SavePassword stores the password hash, replacing any previous one.
	SavePassword(ctx context.Context, hash string) error

	// ClearPassword removes the stored password.
	ClearPassword(ctx context.Context) error
}

// PasswordHasher derives and verifies stored password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}
