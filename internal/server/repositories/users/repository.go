// Package users provides persistence for user accounts.
package users

import (
	"context"
	"time"

	"github.com/roadsvr/backend/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	UpdateName(ctx context.Context, id int64, name string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	List(ctx context.Context, offset, limit int) ([]*models.User, error)
	ExtendLicense(ctx context.Context, id int64, days int) (time.Time, error)
	SetLicense(ctx context.Context, id int64, days int) (time.Time, error)
	RevokeLicense(ctx context.Context, id int64) (time.Time, error)
	SetLevel(ctx context.Context, id int64, level int) (int, error)
}
