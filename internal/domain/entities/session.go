package entities

import "time"

// AuthState is a state of the authentication gate.
type AuthState string

// Gate states. Lockout is reported through an error rather than held as a
// state, since the forgot-password prompt clears it immediately.
const (
	StateUnregistered AuthState = "unregistered"
	StateRegistering  AuthState = "registering"
	StateLoggedOut    AuthState = "logged_out"
	StateLoggedIn     AuthState = "logged_in"
)

// Session is the explicit per-process authentication state. It is created when
// the gate starts and passed into and returned from every gate operation.
type Session struct {
	ID             string    `json:"id"`
	State          AuthState `json:"state"`
	FailedAttempts int       `json:"failed_attempts"`
	StartedAt      time.Time `json:"started_at"`
	LoggedInAt     time.Time `json:"logged_in_at,omitempty"`
}

// IsLoggedIn reports whether the session has unlocked the vault.
func (s Session) IsLoggedIn() bool {
	return s.State == StateLoggedIn
}

// IsRegistered reports whether a password exists for this vault.
func (s Session) IsRegistered() bool {
	return s.State == StateLoggedOut || s.State == StateLoggedIn
}

// BiometricOutcome is the terminal result of a single biometric attempt.
type BiometricOutcome string

// Biometric outcomes delivered by the platform capability.
const (
	BiometricSuccess          BiometricOutcome = "success"
	BiometricCancelled        BiometricOutcome = "cancelled"
	BiometricNotAvailable     BiometricOutcome = "not_available"
	BiometricPermissionDenied BiometricOutcome = "permission_denied"
	BiometricError            BiometricOutcome = "error"
	BiometricFailed           BiometricOutcome = "failed"
)

// BiometricResult carries an outcome plus an optional message for BiometricError.
type BiometricResult struct {
	Outcome BiometricOutcome
	Message string
}

// Availability reports what the platform can offer for biometric login.
type Availability struct {
	HardwarePresent bool
	Enrolled        bool
}
