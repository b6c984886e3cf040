package handlers

import (
	"context"
	"sync"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/services"
)

// AuthHandler drives the authentication gate for one presentation session.
// It keeps the current Session so callers do not have to thread it through.
type AuthHandler struct {
	gate *services.AuthGate

	mu      sync.Mutex
	session entities.Session
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(gate *services.AuthGate) *AuthHandler {
	return &AuthHandler{
		gate: gate,
	}
}

// Session returns the current session.
func (h *AuthHandler) Session() entities.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// update runs op against the current session and keeps its result, even on
// error, since failed logins change the attempt counter.
func (h *AuthHandler) update(op func(entities.Session) (entities.Session, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := op(h.session)
	h.session = s
	return err
}

// HandleStart opens the gate and returns the initial state.
func (h *AuthHandler) HandleStart(ctx context.Context) (entities.AuthState, error) {
	s, err := h.gate.Start(ctx)
	if err != nil {
		return "", err
	}
	h.mu.Lock()
	h.session = s
	h.mu.Unlock()
	return s.State, nil
}

// HandleEnter runs the biometric auto-trigger. It reports whether an attempt was made.
func (h *AuthHandler) HandleEnter(ctx context.Context) (bool, error) {
	var attempted bool
	err := h.update(func(s entities.Session) (entities.Session, error) {
		var err error
		s, attempted, err = h.gate.Enter(ctx, s)
		return s, err
	})
	return attempted, err
}

// HandleRegister stores the first password and logs in.
func (h *AuthHandler) HandleRegister(ctx context.Context, password, confirmation string) error {
	return h.update(func(s entities.Session) (entities.Session, error) {
		s, err := h.gate.BeginRegistration(s)
		if err != nil {
			return s, err
		}
		return h.gate.Register(ctx, s, password, confirmation)
	})
}

// HandleLogin checks a password.
func (h *AuthHandler) HandleLogin(ctx context.Context, password string) error {
	return h.update(func(s entities.Session) (entities.Session, error) {
		return h.gate.Login(ctx, s, password)
	})
}

// HandleBiometric runs one explicit biometric attempt.
func (h *AuthHandler) HandleBiometric(ctx context.Context) error {
	return h.update(func(s entities.Session) (entities.Session, error) {
		return h.gate.LoginBiometric(ctx, s)
	})
}

// HandleBiometricEligible reports whether the biometric path may be offered.
func (h *AuthHandler) HandleBiometricEligible(ctx context.Context) error {
	return h.gate.BiometricEligible(ctx, h.Session())
}

// HandleResetPassword wipes the stored password and every record.
func (h *AuthHandler) HandleResetPassword(ctx context.Context) error {
	return h.update(func(s entities.Session) (entities.Session, error) {
		return h.gate.ResetPassword(ctx, s)
	})
}

// HandleLogout ends the logged-in state.
func (h *AuthHandler) HandleLogout() error {
	return h.update(h.gate.Logout)
}
