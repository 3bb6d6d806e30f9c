// Package modules provides persistence for educational-module progress.
package modules

import (
	"context"

	"github.com/roadsvr/backend/internal/server/models"
)

type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]*models.ModuleProgress, error)
	Get(ctx context.Context, userID int64, module int) (*models.ModuleProgress, error)
	UpsertProgress(ctx context.Context, userID int64, module, progress int) error
	UpsertQuizz(ctx context.Context, userID int64, module, state int) error
}
