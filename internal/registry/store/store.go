package store

import (
	"context"

	"carefund/internal/registry/models"
	id "carefund/pkg/domain"
)

// Store persists verifier records. Implementations return sentinel errors
// (pkg/platform/sentinel) which the service translates into domain errors.
type Store interface {
	Get(ctx context.Context, principal id.Principal) (*models.VerifierRecord, error)
	Create(ctx context.Context, record *models.VerifierRecord) error
	Update(ctx context.Context, record *models.VerifierRecord) error
	Delete(ctx context.Context, principal id.Principal) error
	List(ctx context.Context) ([]*models.VerifierRecord, error)
}
