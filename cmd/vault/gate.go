package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/identity-vault/internal/application/handlers"
	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/services"
)

var (
	errNotRegistered = errors.New("no password registered (run 'vault register' first)")
	errVaultReset    = errors.New("vault was reset; run 'vault register' to set a new password")
)

// unlock passes the authentication gate: biometrics first when eligible,
// then a password prompt loop. Lockout offers a password reset.
func unlock(ctx context.Context, auth *handlers.AuthHandler, p *prompter) error {
	state, err := auth.HandleStart(ctx)
	if err != nil {
		return err
	}
	if state == entities.StateUnregistered {
		return errNotRegistered
	}

	attempted, err := auth.HandleEnter(ctx)
	if err != nil {
		fmt.Fprintln(p.out, describeBiometric(err))
	}
	if attempted && auth.Session().IsLoggedIn() {
		return nil
	}

	for {
		password, err := p.line("Password: ")
		if err != nil {
			return fmt.Errorf("login aborted: %w", err)
		}

		err = auth.HandleLogin(ctx, password)
		var authErr *services.AuthError
		switch {
		case err == nil:
			return nil
		case services.IsLockout(err):
			if !p.confirm(lockoutPrompt) {
				continue
			}
			if err := auth.HandleResetPassword(ctx); err != nil {
				return fmt.Errorf("resetting password: %w", err)
			}
			return errVaultReset
		case errors.As(err, &authErr):
			fmt.Fprintf(p.out, "Wrong password (attempt %d).\n", authErr.Attempts)
		default:
			return err
		}
	}
}

// describeBiometric turns a biometric error into a user-facing line.
func describeBiometric(err error) string {
	var bioErr *services.BiometricError
	switch {
	case errors.Is(err, services.ErrBiometricUnavailable):
		return "No biometric hardware is configured."
	case errors.Is(err, services.ErrBiometricNotEnrolled):
		return "No fingerprint is enrolled. Enroll one in your system settings first."
	case errors.Is(err, services.ErrNotRegistered):
		return "Register a password before using biometric login."
	case errors.As(err, &bioErr):
		return fmt.Sprintf("Biometric login failed (%s). Use your password.", bioErr.Outcome)
	default:
		return err.Error()
	}
}
