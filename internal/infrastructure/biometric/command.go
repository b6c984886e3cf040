// Package biometric adapts platform biometric tools to ports.Biometric.
package biometric

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/infrastructure/config"
)

// Command runs an external verifier such as fprintd-verify. Exit status 0 is
// a match, any other exit status a failed match.
type Command struct {
	argv          []string
	enrolledCheck []string
	logger        *zap.SugaredLogger
}

// NewCommand creates a Command adapter from config.
func NewCommand(cfg config.BiometricConfig, logger *zap.SugaredLogger) *Command {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Command{
		argv:          cfg.Command,
		enrolledCheck: cfg.EnrolledCheck,
		logger:        logger,
	}
}

// Availability reports the verifier as present when it resolves on PATH. With
// no enrolled check configured, a present verifier counts as enrolled.
func (c *Command) Availability(ctx context.Context) entities.Availability {
	if len(c.argv) == 0 {
		return entities.Availability{}
	}
	if _, err := exec.LookPath(c.argv[0]); err != nil {
		return entities.Availability{}
	}
	if len(c.enrolledCheck) == 0 {
		return entities.Availability{HardwarePresent: true, Enrolled: true}
	}

	cmd := exec.CommandContext(ctx, c.enrolledCheck[0], c.enrolledCheck[1:]...)
	err := cmd.Run()
	if err != nil {
		c.logger.Debugw("biometric enrollment check failed", "error", err)
	}
	return entities.Availability{HardwarePresent: true, Enrolled: err == nil}
}

// Attempt runs the verifier once in the background.
func (c *Command) Attempt(ctx context.Context) <-chan entities.BiometricResult {
	out := make(chan entities.BiometricResult, 1)
	go func() {
		defer close(out)
		out <- c.run(ctx)
	}()
	return out
}

func (c *Command) run(ctx context.Context) entities.BiometricResult {
	if len(c.argv) == 0 {
		return entities.BiometricResult{Outcome: entities.BiometricNotAvailable}
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	return classify(ctx, err, strings.TrimSpace(stderr.String()))
}

// classify maps a verifier run to a biometric outcome.
func classify(ctx context.Context, err error, stderr string) entities.BiometricResult {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return entities.BiometricResult{Outcome: entities.BiometricSuccess}
	case ctx.Err() != nil:
		return entities.BiometricResult{Outcome: entities.BiometricCancelled}
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return entities.BiometricResult{Outcome: entities.BiometricNotAvailable}
	case errors.Is(err, os.ErrPermission):
		return entities.BiometricResult{Outcome: entities.BiometricPermissionDenied, Message: err.Error()}
	case errors.As(err, &exitErr):
		return entities.BiometricResult{Outcome: entities.BiometricFailed, Message: stderr}
	default:
		return entities.BiometricResult{Outcome: entities.BiometricError, Message: err.Error()}
	}
}

// Unsupported is the adapter for platforms without biometric hardware.
type Unsupported struct{}

// Availability always reports no hardware.
func (Unsupported) Availability(context.Context) entities.Availability {
	return entities.Availability{}
}

// Attempt always delivers NotAvailable.
func (Unsupported) Attempt(context.Context) <-chan entities.BiometricResult {
	out := make(chan entities.BiometricResult, 1)
	out <- entities.BiometricResult{Outcome: entities.BiometricNotAvailable}
	close(out)
	return out
}
