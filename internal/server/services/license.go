package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/roadsvr/backend/internal/common"
	"github.com/roadsvr/backend/internal/server/apperr"
	"github.com/roadsvr/backend/internal/server/models"
	"github.com/roadsvr/backend/internal/server/repositories/repomanager"
)

// Error codes for the license administration group.
const (
	codeUsersList     = -4000
	codeExtendLicense = -4101
	codeSetLicense    = -4201
	codeRevokeLicense = -4301
	codeSetLevel      = -4401
)

// LicenseService covers the supervisor-facing administration surface:
// user listing, license adjustments and level changes.
type LicenseService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewLicenseService(db *sql.DB, repos repomanager.RepositoryManager) *LicenseService {
	return &LicenseService{db: db, repos: repos}
}

// Users returns a page of accounts.
func (s *LicenseService) Users(ctx context.Context, offset, limit int) ([]*models.User, error) {
	out, err := s.repos.Users(s.db).List(ctx, offset, limit)
	if err != nil {
		return nil, apperr.Storage(err, codeUsersList)
	}
	return out, nil
}

// Extend pushes the user's license expiry forward by days and returns the
// new expiry.
func (s *LicenseService) Extend(ctx context.Context, userID int64, days int) (time.Time, error) {
	t, err := s.repos.Users(s.db).ExtendLicense(ctx, userID, days)
	if err != nil {
		return time.Time{}, licenseErr(err, codeExtendLicense)
	}
	return t, nil
}

// Set replaces the user's license expiry with now plus days.
func (s *LicenseService) Set(ctx context.Context, userID int64, days int) (time.Time, error) {
	t, err := s.repos.Users(s.db).SetLicense(ctx, userID, days)
	if err != nil {
		return time.Time{}, licenseErr(err, codeSetLicense)
	}
	return t, nil
}

// Revoke moves the user's license expiry into the past, locking the
// account out without deleting it.
func (s *LicenseService) Revoke(ctx context.Context, userID int64) (time.Time, error) {
	t, err := s.repos.Users(s.db).RevokeLicense(ctx, userID)
	if err != nil {
		return time.Time{}, licenseErr(err, codeRevokeLicense)
	}
	return t, nil
}

// SetLevel changes the user's hierarchy level and returns the stored value.
func (s *LicenseService) SetLevel(ctx context.Context, userID int64, level int) (int, error) {
	lvl, err := s.repos.Users(s.db).SetLevel(ctx, userID, level)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, apperr.New(apperr.KindNotFound, codeSetLevel, "can't update user level")
		}
		return 0, apperr.Storage(err, codeSetLevel)
	}
	return lvl, nil
}

func licenseErr(err error, code int) error {
	if errors.Is(err, common.ErrorNotFound) {
		return apperr.New(apperr.KindNotFound, code, "can't update license")
	}
	return apperr.Storage(err, code)
}
