package ports

// Metrics receives vault outcome counts. Implementations must be safe for
// concurrent use since deferred deletes commit from timer goroutines.
type Metrics interface {
	LoginSucceeded(method string)
	LoginFailed()
	LockoutTriggered()
	PasswordReset()
	BiometricOutcome(outcome string)

	DeleteRequested()
	DeleteCommitted()
	DeleteUndone()
	DeleteCommitFailed()
}
