package services

// nopMetrics discards every observation.
type nopMetrics struct{}

func (nopMetrics) LoginSucceeded(string)   {}
func (nopMetrics) LoginFailed()            {}
func (nopMetrics) LockoutTriggered()       {}
func (nopMetrics) PasswordReset()          {}
func (nopMetrics) BiometricOutcome(string) {}
func (nopMetrics) DeleteRequested()        {}
func (nopMetrics) DeleteCommitted()        {}
func (nopMetrics) DeleteUndone()           {}
func (nopMetrics) DeleteCommitFailed()     {}
