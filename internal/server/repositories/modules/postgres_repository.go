package modules

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

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.ModuleProgress, error) {
	query :=
		`SELECT user_id, module, COALESCE(progress, 0), COALESCE(quizz, 0) FROM modules
		 WHERE user_id = $1
		 ORDER BY module`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.ModuleProgress
	for rows.Next() {
		m := &models.ModuleProgress{}
		if err := rows.Scan(&m.UserID, &m.Module, &m.Progress, &m.Quizz); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID int64, module int) (*models.ModuleProgress, error) {
	query :=
		`SELECT user_id, module, COALESCE(progress, 0), COALESCE(quizz, 0) FROM modules
		 WHERE user_id = $1 AND module = $2`

	m := &models.ModuleProgress{}
	err := r.db.QueryRowContext(ctx, query, userID, module).Scan(&m.UserID, &m.Module, &m.Progress, &m.Quizz)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) UpsertProgress(ctx context.Context, userID int64, module, progress int) error {
	query :=
		`INSERT INTO modules (user_id, module, progress)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, module) DO UPDATE SET progress = EXCLUDED.progress`

	if _, err := r.db.ExecContext(ctx, query, userID, module, progress); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertQuizz(ctx context.Context, userID int64, module, state int) error {
	query :=
		`INSERT INTO modules (user_id, module, quizz)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, module) DO UPDATE SET quizz = EXCLUDED.quizz`

	if _, err := r.db.ExecContext(ctx, query, userID, module, state); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
