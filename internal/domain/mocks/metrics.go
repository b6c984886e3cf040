package mocks

import "sync"

// Metrics counts observations. It implements ports.Metrics.
type Metrics struct {
	mu     sync.Mutex
	Counts map[string]int
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{Counts: make(map[string]int)}
}

// Count returns the number of observations under name.
func (m *Metrics) Count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Counts[name]
}

func (m *Metrics) inc(name string) {
	m.mu.Lock()
	m.Counts[name]++
	m.mu.Unlock()
}

func (m *Metrics) LoginSucceeded(method string)    { m.inc("login_succeeded:" + method) }
func (m *Metrics) LoginFailed()                    { m.inc("login_failed") }
func (m *Metrics) LockoutTriggered()               { m.inc("lockout") }
func (m *Metrics) PasswordReset()                  { m.inc("password_reset") }
func (m *Metrics) BiometricOutcome(outcome string) { m.inc("biometric:" + outcome) }
func (m *Metrics) DeleteRequested()                { m.inc("delete_requested") }
func (m *Metrics) DeleteCommitted()                { m.inc("delete_committed") }
func (m *Metrics) DeleteUndone()                   { m.inc("delete_undone") }
func (m *Metrics) DeleteCommitFailed()             { m.inc("delete_commit_failed") }
