// Package codes provides persistence for VR session codes.
package codes

import (
	"context"

	"github.com/roadsvr/backend/internal/server/models"
)

type Repository interface {
	// FindUnused returns the open code for a (user, scene) pair, or
	// common.ErrorNotFound when no unused code exists.
	FindUnused(ctx context.Context, userID int64, scene int) (*models.SessionCode, error)

	// Insert persists a fresh code. Constraint violations (code value
	// collision, duplicate open pair) surface as wrapped driver errors for
	// the caller to classify.
	Insert(ctx context.Context, code *models.SessionCode) error

	FindByCode(ctx context.Context, code string) (*models.SessionCode, error)

	// Delete removes a code and reports the number of affected rows; the
	// caller uses the count as its concurrency guard.
	Delete(ctx context.Context, code string) (int64, error)
}
