package ports

import (
	"context"

	"github.com/ersonp/identity-vault/internal/domain/entities"
)

//go:generate mockgen -destination=../mocks/biometric_mock.go -package=mocks . Biometric

// Biometric is the platform biometric capability.
type Biometric interface {
	// Availability reports sensor presence and enrollment.
	Availability(ctx context.Context) entities.Availability

	// Attempt starts one verification. The returned channel delivers exactly one
	// result and is then closed; the attempt may complete at any later time.
	Attempt(ctx context.Context) <-chan entities.BiometricResult
}
