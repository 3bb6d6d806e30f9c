package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roadsvr/backend/internal/common"
	"github.com/roadsvr/backend/internal/dbx"
	"github.com/roadsvr/backend/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) DeleteFor(ctx context.Context, userID int64, platform, scene int) error {
	query := `DELETE FROM results WHERE user_id = $1 AND platform = $2 AND scene = $3`

	if _, err := r.db.ExecContext(ctx, query, userID, platform, scene); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Insert(ctx context.Context, result *models.Result) error {
	query :=
		`INSERT INTO results (user_id, platform, scene, data, signals, signals_ok, distances, distances_ok)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		result.UserID, result.Platform, result.Scene, result.Data,
		result.Signals, result.SignalsOK, result.Distances, result.DistancesOK)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, userID int64, platform, scene int) (*models.Result, error) {
	query :=
		`SELECT user_id, platform, scene, date, COALESCE(data, ''), signals, signals_ok, distances, distances_ok
		 FROM results
		 WHERE user_id = $1 AND platform = $2 AND scene = $3`

	res := &models.Result{}
	err := r.db.QueryRowContext(ctx, query, userID, platform, scene).Scan(
		&res.UserID, &res.Platform, &res.Scene, &res.Date, &res.Data,
		&res.Signals, &res.SignalsOK, &res.Distances, &res.DistancesOK)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, platform int) ([]*models.Result, error) {
	query :=
		`SELECT user_id, platform, scene, date, signals, signals_ok, distances, distances_ok
		 FROM results
		 WHERE user_id = $1 AND platform = $2
		 ORDER BY date`

	return r.list(ctx, query, userID, platform)
}

func (r *PostgresRepository) ListAll(ctx context.Context, platform int) ([]*models.Result, error) {
	query :=
		`SELECT user_id, platform, scene, date, signals, signals_ok, distances, distances_ok
		 FROM results
		 WHERE platform = $1
		 ORDER BY date`

	return r.list(ctx, query, platform)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Result, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Result
	for rows.Next() {
		res := &models.Result{}
		if err := rows.Scan(&res.UserID, &res.Platform, &res.Scene, &res.Date,
			&res.Signals, &res.SignalsOK, &res.Distances, &res.DistancesOK); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
