package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roadsvr/backend/internal/common"
	"github.com/roadsvr/backend/internal/server/apperr"
	"github.com/roadsvr/backend/internal/server/models"
	"github.com/roadsvr/backend/internal/server/repositories/repomanager"
)

// Error codes for the educational-modules group.
const (
	codeModulesList    = -6000
	codeModuleMissing  = -6101
	codeUpdateProgress = -6201
	codeUpdateQuizz    = -6301
)

// ModuleService tracks per-user progress through educational modules.
type ModuleService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewModuleService(db *sql.DB, repos repomanager.RepositoryManager) *ModuleService {
	return &ModuleService{db: db, repos: repos}
}

// List returns all of the caller's module records.
func (s *ModuleService) List(ctx context.Context, userID int64) ([]*models.ModuleProgress, error) {
	out, err := s.repos.Modules(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(err, codeModulesList)
	}
	return out, nil
}

// Get returns the caller's record for one module.
func (s *ModuleService) Get(ctx context.Context, userID int64, module int) (*models.ModuleProgress, error) {
	m, err := s.repos.Modules(s.db).Get(ctx, userID, module)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.New(apperr.KindNotFound, codeModuleMissing, "can't find module")
		}
		return nil, apperr.Storage(err, codeModuleMissing)
	}
	return m, nil
}

// SetProgress upserts the caller's progress value for the module.
func (s *ModuleService) SetProgress(ctx context.Context, userID int64, module, progress int) error {
	if err := s.repos.Modules(s.db).UpsertProgress(ctx, userID, module, progress); err != nil {
		return apperr.Storage(err, codeUpdateProgress)
	}
	return nil
}

// SetQuizz upserts the caller's quiz state for the module.
func (s *ModuleService) SetQuizz(ctx context.Context, userID int64, module, state int) error {
	if err := s.repos.Modules(s.db).UpsertQuizz(ctx, userID, module, state); err != nil {
		return apperr.Storage(err, codeUpdateQuizz)
	}
	return nil
}
