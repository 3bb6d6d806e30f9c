// CodeService manages the VR session-code lifecycle: issuing codes bound to
// a (user, scene) pair, resolving them for anonymous headsets and closing
// them with a result submission.
package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"

	"github.com/roadsvr/backend/internal/common"
	"github.com/roadsvr/backend/internal/dbx"
	"github.com/roadsvr/backend/internal/server/apperr"
	"github.com/roadsvr/backend/internal/server/config"
	"github.com/roadsvr/backend/internal/server/imagestore"
	"github.com/roadsvr/backend/internal/server/models"
	"github.com/roadsvr/backend/internal/server/repositories/repomanager"
)

// Error codes for code issuance (user group) and the codes group (-3000s).
const (
	codeIssueBase      = -2100
	codeIssueInsert    = -2101
	codeSpaceExhausted = -2102
	codeResolveBase    = -3000
	codeResolveMissing = -3001
	codeImageCodeBase  = -3100
	codeImageCodeMiss  = -3101
	codeOwnerImageMiss = -3102
	codeCloseBase      = -3200
	codeCloseMissing   = -3202
	codeCloseRaced     = -3203
)

// maxCodeAttempts bounds regeneration when a random code collides with an
// existing one.
const maxCodeAttempts = 5

// pairIndexName is the partial unique index guaranteeing at most one unused
// code per (user, scene) pair.
const pairIndexName = "codes_owner_scene_unused_idx"

// Report is one entry of a simulation report. Only the result flag
// contributes to the computed counts; any extra fields ride along in the
// raw payload.
type Report struct {
	Result bool `json:"result"`
}

func countOK(reports []Report) int {
	n := 0
	for _, r := range reports {
		if r.Result {
			n++
		}
	}
	return n
}

// ResolvedCode is the public view of a session code: the owner's name, the
// scene and, when the owner already has a VR result for that scene, its raw
// report data.
type ResolvedCode struct {
	Name    string
	Scene   int
	Created time.Time
	Data    *string
}

type CodeService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	images   imagestore.Store
	sentinel string
}

func NewCodeService(db *sql.DB, repos repomanager.RepositoryManager, images imagestore.Store, cfg *config.Config) *CodeService {
	return &CodeService{
		db:       db,
		repos:    repos,
		images:   images,
		sentinel: cfg.SentinelCode,
	}
}

// IssueOrReuse returns the open code for the pair, minting one when none
// exists. Repeated calls before closing return the same code, so headset
// reconnects do not churn codes.
func (s *CodeService) IssueOrReuse(ctx context.Context, userID int64, scene int) (string, error) {
	repo := s.repos.Codes(s.db)

	existing, err := repo.FindUnused(ctx, userID, scene)
	if err == nil {
		return existing.Code, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", apperr.Storage(err, codeIssueBase)
	}

	var code string
	backoff := retry.WithMaxRetries(maxCodeAttempts, retry.NewConstant(time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		candidate, err := randomCode()
		if err != nil {
			return err
		}

		insErr := repo.Insert(ctx, &models.SessionCode{Code: candidate, UserID: userID, Scene: scene})
		if insErr == nil {
			code = candidate
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(insErr, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == pairIndexName {
				// Lost a race with a concurrent issue for the same pair:
				// adopt the winner's code.
				winner, ferr := repo.FindUnused(ctx, userID, scene)
				if ferr != nil {
					return ferr
				}
				code = winner.Code
				return nil
			}
			// Code value collision, try another candidate.
			return retry.RetryableError(insErr)
		}
		return insErr
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", apperr.New(apperr.KindConflict, codeSpaceExhausted, "can't create code")
		}
		return "", apperr.Storage(err, codeIssueInsert)
	}
	return code, nil
}

// Resolve is the unauthenticated headset lookup. An unknown code and a
// closed code are indistinguishable on purpose.
func (s *CodeService) Resolve(ctx context.Context, code string) (*ResolvedCode, error) {
	c, err := s.repos.Codes(s.db).FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, codeResolveMissing, "can't find the code %s", code)
		}
		return nil, apperr.Storage(err, codeResolveBase)
	}

	owner, err := s.repos.Users(s.db).GetByID(ctx, c.UserID)
	if err != nil {
		return nil, apperr.Storage(err, codeResolveBase)
	}

	resolved := &ResolvedCode{Name: owner.Name, Scene: c.Scene, Created: c.Created}

	prior, err := s.repos.Results(s.db).Find(ctx, c.UserID, models.PlatformVR, c.Scene)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.Storage(err, codeResolveBase)
		}
	} else {
		resolved.Data = &prior.Data
	}
	return resolved, nil
}

// OwnerImage returns the code owner's profile image.
func (s *CodeService) OwnerImage(ctx context.Context, code string) ([]byte, error) {
	c, err := s.repos.Codes(s.db).FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, codeImageCodeMiss, "can't find the code %s", code)
		}
		return nil, apperr.Storage(err, codeImageCodeBase)
	}

	data, err := s.images.Get(ctx, c.UserID)
	if err != nil {
		if errors.Is(err, imagestore.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, codeOwnerImageMiss, "image not found")
		}
		return nil, apperr.Storage(err, codeImageCodeBase)
	}
	return data, nil
}

// Close stores the VR result computed from the reports and retires the
// code. Replacing the prior result and deleting the code happen in one
// transaction; the delete's affected-row count is the guard against a
// concurrent close. The sentinel code is never deleted.
func (s *CodeService) Close(ctx context.Context, code string, signals, distances []Report, raw []byte) error {
	signalsOK := countOK(signals)
	distancesOK := countOK(distances)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		codesRepo := s.repos.Codes(tx)

		c, err := codesRepo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return apperr.Newf(apperr.KindNotFound, codeCloseMissing, "can't find the code %s", code)
			}
			return err
		}

		resultsRepo := s.repos.Results(tx)
		if err := resultsRepo.DeleteFor(ctx, c.UserID, models.PlatformVR, c.Scene); err != nil {
			return err
		}
		result := &models.Result{
			UserID:      c.UserID,
			Platform:    models.PlatformVR,
			Scene:       c.Scene,
			Data:        string(raw),
			Signals:     len(signals),
			SignalsOK:   signalsOK,
			Distances:   len(distances),
			DistancesOK: distancesOK,
		}
		if err := resultsRepo.Insert(ctx, result); err != nil {
			return err
		}

		if code != s.sentinel {
			n, err := codesRepo.Delete(ctx, code)
			if err != nil {
				return err
			}
			if n != 1 {
				return apperr.Newf(apperr.KindNotFound, codeCloseRaced, "can't find the code %s", code)
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := apperr.From(err); ok {
			return err
		}
		return apperr.Storage(err, codeCloseBase)
	}
	return nil
}

// randomCode draws a uniform 6-digit numeric code. Uniqueness is enforced
// by the primary key, not by construction.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
