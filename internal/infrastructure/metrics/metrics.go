// Package metrics counts authentication and deferred-delete outcomes.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements ports.Metrics with prometheus counters on its own
// registry. A CLI process is short-lived, so the registry is written to a
// textfile for node_exporter instead of being scraped.
type Metrics struct {
	registry *prometheus.Registry

	LoginSuccess     *prometheus.CounterVec
	LoginFailure     prometheus.Counter
	Lockouts         prometheus.Counter
	PasswordResets   prometheus.Counter
	BiometricResults *prometheus.CounterVec
	DeleteOutcomes   *prometheus.CounterVec
}

// New creates a Metrics instance with all vault metrics registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		LoginSuccess: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_login_success_total",
			Help: "Total number of successful logins by method",
		}, []string{"method"}),
		LoginFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "vault_login_failure_total",
			Help: "Total number of rejected password logins",
		}),
		Lockouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "vault_lockouts_total",
			Help: "Total number of logins routed to the forgot-password prompt",
		}),
		PasswordResets: factory.NewCounter(prometheus.CounterOpts{
			Name: "vault_password_resets_total",
			Help: "Total number of password resets (vault wipes)",
		}),
		BiometricResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_biometric_attempts_total",
			Help: "Total number of biometric attempts by outcome",
		}, []string{"outcome"}),
		DeleteOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_deferred_deletes_total",
			Help: "Deferred delete transitions: requested, committed, undone, commit_failed",
		}, []string{"outcome"}),
	}
}

// Registry returns the registry holding the vault metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// LoginSucceeded records a successful login.
func (m *Metrics) LoginSucceeded(method string) {
	m.LoginSuccess.WithLabelValues(method).Inc()
}

// LoginFailed records a rejected password.
func (m *Metrics) LoginFailed() {
	m.LoginFailure.Inc()
}

// LockoutTriggered records a login intercepted by the forgot-password prompt.
func (m *Metrics) LockoutTriggered() {
	m.Lockouts.Inc()
}

// PasswordReset records a vault wipe.
func (m *Metrics) PasswordReset() {
	m.PasswordResets.Inc()
}

// BiometricOutcome records the terminal outcome of a biometric attempt.
func (m *Metrics) BiometricOutcome(outcome string) {
	m.BiometricResults.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DeleteRequested()    { m.DeleteOutcomes.WithLabelValues("requested").Inc() }
func (m *Metrics) DeleteCommitted()    { m.DeleteOutcomes.WithLabelValues("committed").Inc() }
func (m *Metrics) DeleteUndone()       { m.DeleteOutcomes.WithLabelValues("undone").Inc() }
func (m *Metrics) DeleteCommitFailed() { m.DeleteOutcomes.WithLabelValues("commit_failed").Inc() }
