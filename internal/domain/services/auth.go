package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/ports"
)

// DefaultLockoutThreshold is the failed-attempt count after which the next
// login is routed to the forgot-password prompt.
const DefaultLockoutThreshold = 3

// AuthGate guards access to the vault. It holds no session state of its own:
// every operation takes a Session and returns the updated one.
type AuthGate struct {
	creds       ports.CredentialStore
	hasher      ports.PasswordHasher
	records     *RecordService
	biometric   ports.Biometric
	threshold   int
	autoTrigger bool
	now         func() time.Time
	logger      *zap.SugaredLogger
	metrics     ports.Metrics
}

// AuthOption configures an AuthGate.
type AuthOption func(*AuthGate)

// WithAuthLogger sets the logger.
func WithAuthLogger(logger *zap.SugaredLogger) AuthOption {
	return func(g *AuthGate) {
		g.logger = logger
	}
}

// WithAuthMetrics sets the metrics sink.
func WithAuthMetrics(m ports.Metrics) AuthOption {
	return func(g *AuthGate) {
		g.metrics = m
	}
}

// WithLockoutThreshold overrides DefaultLockoutThreshold.
func WithLockoutThreshold(n int) AuthOption {
	return func(g *AuthGate) {
		g.threshold = n
	}
}

// WithAutoTrigger controls whether Enter starts biometric login on its own.
func WithAutoTrigger(enabled bool) AuthOption {
	return func(g *AuthGate) {
		g.autoTrigger = enabled
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) AuthOption {
	return func(g *AuthGate) {
		g.now = now
	}
}

// NewAuthGate creates an AuthGate. biometric may be nil when the platform has
// no biometric capability.
func NewAuthGate(creds ports.CredentialStore, hasher ports.PasswordHasher, records *RecordService, biometric ports.Biometric, opts ...AuthOption) *AuthGate {
	g := &AuthGate{
		creds:       creds,
		hasher:      hasher,
		records:     records,
		biometric:   biometric,
		threshold:   DefaultLockoutThreshold,
		autoTrigger: true,
		now:         time.Now,
		logger:      zap.NewNop().Sugar(),
		metrics:     nopMetrics{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start creates a session for this process. Its state reflects whether a
// password is stored.
func (g *AuthGate) Start(ctx context.Context) (entities.Session, error) {
	s := entities.Session{
		ID:        uuid.New().String(),
		State:     entities.StateUnregistered,
		StartedAt: g.now(),
	}
	_, ok, err := g.creds.LoadPassword(ctx)
	if err != nil {
		return s, storage("loading password", err)
	}
	if ok {
		s.State = entities.StateLoggedOut
	}
	g.logger.Debugw("session started", "session_id", s.ID, "state", s.State)
	return s, nil
}

// BeginRegistration moves an unregistered session into the registration form.
func (g *AuthGate) BeginRegistration(s entities.Session) (entities.Session, error) {
	switch s.State {
	case entities.StateUnregistered, entities.StateRegistering:
		s.State = entities.StateRegistering
		return s, nil
	default:
		return s, invalid("password", ErrAlreadyRegistered)
	}
}

// Register stores a new password and logs the session in. Blank fields are
// reported before a mismatch.
func (g *AuthGate) Register(ctx context.Context, s entities.Session, password, confirmation string) (entities.Session, error) {
	switch {
	case entities.IsBlank(password):
		return s, invalid("password", ErrPasswordEmpty)
	case entities.IsBlank(confirmation):
		return s, invalid("confirmation", ErrConfirmationEmpty)
	case password != confirmation:
		return s, invalid("confirmation", ErrPasswordMismatch)
	}

	_, ok, err := g.creds.LoadPassword(ctx)
	if err != nil {
		return s, storage("loading password", err)
	}
	if ok {
		return s, invalid("password", ErrAlreadyRegistered)
	}

	hash, err := g.hasher.Hash(password)
	if err != nil {
		return s, storage("hashing password", err)
	}
	if err := g.creds.SavePassword(ctx, hash); err != nil {
		return s, storage("saving password", err)
	}

	s = g.loggedIn(s)
	g.metrics.LoginSucceeded("register")
	g.logger.Infow("password registered", "session_id", s.ID)
	return s, nil
}

// Login checks password against the stored one. Once FailedAttempts exceeds
// the lockout threshold, the attempt is not checked: the counter resets and
// ErrLockout asks the caller to offer a password reset.
func (g *AuthGate) Login(ctx context.Context, s entities.Session, password string) (entities.Session, error) {
	if s.FailedAttempts > g.threshold {
		s.FailedAttempts = 0
		g.metrics.LockoutTriggered()
		g.logger.Warnw("login locked out, offering password reset", "session_id", s.ID)
		return s, &AuthError{Err: ErrLockout}
	}

	stored, ok, err := g.creds.LoadPassword(ctx)
	if err != nil {
		return s, storage("loading password", err)
	}
	if !ok {
		s.State = entities.StateUnregistered
		return s, &AuthError{Err: ErrNotRegistered, Attempts: s.FailedAttempts}
	}

	match := false
	if !entities.IsBlank(password) {
		match, err = g.hasher.Verify(password, stored)
		if err != nil {
			return s, storage("verifying password", err)
		}
	}
	if !match {
		s.FailedAttempts++
		s.State = entities.StateLoggedOut
		g.metrics.LoginFailed()
		g.logger.Infow("login failed", "session_id", s.ID, "attempts", s.FailedAttempts)
		return s, &AuthError{Err: ErrInvalidPassword, Attempts: s.FailedAttempts}
	}

	s = g.loggedIn(s)
	g.metrics.LoginSucceeded("password")
	g.logger.Infow("logged in", "session_id", s.ID, "method", "password")
	return s, nil
}

// ResetPassword wipes the vault: every record, then the stored password. The
// password is kept when the records could not be deleted, so a failed wipe
// never leaves readable records behind an unregistered vault. The session
// returns to Unregistered.
func (g *AuthGate) ResetPassword(ctx context.Context, s entities.Session) (entities.Session, error) {
	if err := g.records.DeleteAll(ctx); err != nil {
		return s, err
	}
	if err := g.creds.ClearPassword(ctx); err != nil {
		return s, storage("clearing password", err)
	}

	s.State = entities.StateUnregistered
	s.FailedAttempts = 0
	s.LoggedInAt = time.Time{}
	g.metrics.PasswordReset()
	g.logger.Warnw("vault wiped by password reset", "session_id", s.ID)
	return s, nil
}

// BiometricEligible returns nil if the biometric path may be offered.
func (g *AuthGate) BiometricEligible(ctx context.Context, s entities.Session) error {
	if g.biometric == nil {
		return ErrBiometricUnavailable
	}
	avail := g.biometric.Availability(ctx)
	if !avail.HardwarePresent {
		return ErrBiometricUnavailable
	}
	if !avail.Enrolled {
		return ErrBiometricNotEnrolled
	}
	if !s.IsRegistered() {
		return ErrNotRegistered
	}
	return nil
}

// LoginBiometric runs one biometric attempt and waits for its outcome or ctx.
// Cancelled and NotAvailable leave the session as it was without an error;
// other failures return a *BiometricError. The password counter is never
// touched.
func (g *AuthGate) LoginBiometric(ctx context.Context, s entities.Session) (entities.Session, error) {
	if err := g.BiometricEligible(ctx, s); err != nil {
		return s, err
	}

	var result entities.BiometricResult
	select {
	case r, ok := <-g.biometric.Attempt(ctx):
		if !ok {
			result = entities.BiometricResult{Outcome: entities.BiometricCancelled}
		} else {
			result = r
		}
	case <-ctx.Done():
		result = entities.BiometricResult{Outcome: entities.BiometricCancelled}
	}

	g.metrics.BiometricOutcome(string(result.Outcome))
	g.logger.Debugw("biometric attempt finished", "session_id", s.ID, "outcome", result.Outcome)

	switch result.Outcome {
	case entities.BiometricSuccess:
		s = g.loggedIn(s)
		g.metrics.LoginSucceeded("biometric")
		g.logger.Infow("logged in", "session_id", s.ID, "method", "biometric")
		return s, nil
	case entities.BiometricCancelled, entities.BiometricNotAvailable:
		return s, nil
	default:
		return s, &BiometricError{Outcome: result.Outcome, Message: result.Message}
	}
}

// Enter is called when the gate is shown. With auto-trigger enabled and an
// eligible session, it starts the biometric path without an explicit request.
// It reports whether a biometric attempt was made.
func (g *AuthGate) Enter(ctx context.Context, s entities.Session) (entities.Session, bool, error) {
	if !g.autoTrigger || s.State != entities.StateLoggedOut {
		return s, false, nil
	}
	if err := g.BiometricEligible(ctx, s); err != nil {
		return s, false, nil
	}
	s, err := g.LoginBiometric(ctx, s)
	return s, true, err
}

// Logout ends the logged-in state of the session.
func (g *AuthGate) Logout(s entities.Session) (entities.Session, error) {
	if !s.IsLoggedIn() {
		return s, ErrNotLoggedIn
	}
	s.State = entities.StateLoggedOut
	s.FailedAttempts = 0
	s.LoggedInAt = time.Time{}
	g.logger.Debugw("logged out", "session_id", s.ID)
	return s, nil
}

// RequireLoggedIn returns ErrNotLoggedIn unless s has unlocked the vault.
func RequireLoggedIn(s entities.Session) error {
	if !s.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

// IsLockout reports whether err is the forgot-password interception.
func IsLockout(err error) bool {
	return errors.Is(err, ErrLockout)
}

func (g *AuthGate) loggedIn(s entities.Session) entities.Session {
	s.State = entities.StateLoggedIn
	s.FailedAttempts = 0
	s.LoggedInAt = g.now()
	return s
}
