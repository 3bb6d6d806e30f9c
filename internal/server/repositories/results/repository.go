// Package results provides persistence for simulation results.
package results

import (
	"context"

	"github.com/roadsvr/backend/internal/server/models"
)

type Repository interface {
	// DeleteFor clears any prior result for the (user, platform, scene)
	// combination; deleting nothing is not an error.
	DeleteFor(ctx context.Context, userID int64, platform, scene int) error

	Insert(ctx context.Context, result *models.Result) error

	Find(ctx context.Context, userID int64, platform, scene int) (*models.Result, error)

	ListByUser(ctx context.Context, userID int64, platform int) ([]*models.Result, error)

	// ListAll returns every result for a platform across users.
	ListAll(ctx context.Context, platform int) ([]*models.Result, error)
}
