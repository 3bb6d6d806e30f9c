package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/roadsvr/backend/internal/common"
	"github.com/roadsvr/backend/internal/dbx"
	"github.com/roadsvr/backend/internal/server/apperr"
	"github.com/roadsvr/backend/internal/server/models"
	"github.com/roadsvr/backend/internal/server/repositories/repomanager"
)

// Error codes for result retrieval/submission and the supervisor-wide
// listing.
const (
	codeVRResults     = -2600
	codeWebResults    = -2700
	codeWebResult     = -2800
	codeSubmitWebBase = -2900
	codeSubmitWebIns  = -2901
	codeAllVRResults  = -5000
)

// WebSubmission is the body of a web simulation report. Scene selects the
// slot; the whole submission (extra fields included) is persisted as the
// raw result data.
type WebSubmission struct {
	Scene     int      `json:"scene"`
	Signals   []Report `json:"signals"`
	Distances []Report `json:"distances"`
}

type ResultService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewResultService(db *sql.DB, repos repomanager.RepositoryManager) *ResultService {
	return &ResultService{db: db, repos: repos}
}

// VRResults lists the caller's VR results across scenes.
func (s *ResultService) VRResults(ctx context.Context, userID int64) ([]*models.Result, error) {
	out, err := s.repos.Results(s.db).ListByUser(ctx, userID, models.PlatformVR)
	if err != nil {
		return nil, apperr.Storage(err, codeVRResults)
	}
	return out, nil
}

// VRResult returns the caller's VR result for one scene.
func (s *ResultService) VRResult(ctx context.Context, userID int64, scene int) (*models.Result, error) {
	r, err := s.repos.Results(s.db).Find(ctx, userID, models.PlatformVR, scene)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.New(apperr.KindNotFound, codeVRResults, "result not found")
		}
		return nil, apperr.Storage(err, codeVRResults)
	}
	return r, nil
}

// WebResults lists the caller's web results across scenes.
func (s *ResultService) WebResults(ctx context.Context, userID int64) ([]*models.Result, error) {
	out, err := s.repos.Results(s.db).ListByUser(ctx, userID, models.PlatformWeb)
	if err != nil {
		return nil, apperr.Storage(err, codeWebResults)
	}
	return out, nil
}

// WebResult returns the caller's web result for one scene.
func (s *ResultService) WebResult(ctx context.Context, userID int64, scene int) (*models.Result, error) {
	r, err := s.repos.Results(s.db).Find(ctx, userID, models.PlatformWeb, scene)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.New(apperr.KindNotFound, codeWebResult, "result not found")
		}
		return nil, apperr.Storage(err, codeWebResult)
	}
	return r, nil
}

// SubmitWeb replaces the caller's web result for the submitted scene.
// Delete and insert run in one transaction so a partial replace cannot
// leave the scene without a result.
func (s *ResultService) SubmitWeb(ctx context.Context, userID int64, sub *WebSubmission, raw []byte) error {
	if len(raw) == 0 {
		var err error
		raw, err = json.Marshal(sub)
		if err != nil {
			return apperr.Storage(err, codeSubmitWebBase)
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Results(tx)
		if err := repo.DeleteFor(ctx, userID, models.PlatformWeb, sub.Scene); err != nil {
			return err
		}
		return repo.Insert(ctx, &models.Result{
			UserID:      userID,
			Platform:    models.PlatformWeb,
			Scene:       sub.Scene,
			Data:        string(raw),
			Signals:     len(sub.Signals),
			SignalsOK:   countOK(sub.Signals),
			Distances:   len(sub.Distances),
			DistancesOK: countOK(sub.Distances),
		})
	})
	if err != nil {
		return apperr.Storage(err, codeSubmitWebIns)
	}
	return nil
}

// AllVR lists VR results across every user. Supervisor reporting only.
func (s *ResultService) AllVR(ctx context.Context) ([]*models.Result, error) {
	out, err := s.repos.Results(s.db).ListAll(ctx, models.PlatformVR)
	if err != nil {
		return nil, apperr.Storage(err, codeAllVRResults)
	}
	return out, nil
}
