package codes

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

func (r *PostgresRepository) FindUnused(ctx context.Context, userID int64, scene int) (*models.SessionCode, error) {
	query :=
		`SELECT code, used, created, user_id, scene FROM codes
		 WHERE user_id = $1 AND scene = $2 AND NOT used`

	return r.scanCode(r.db.QueryRowContext(ctx, query, userID, scene))
}

func (r *PostgresRepository) Insert(ctx context.Context, code *models.SessionCode) error {
	query :=
		`INSERT INTO codes (code, used, user_id, scene)
		 VALUES ($1, FALSE, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, code.Code, code.UserID, code.Scene); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (*models.SessionCode, error) {
	query :=
		`SELECT code, used, created, user_id, scene FROM codes
		 WHERE code = $1`

	return r.scanCode(r.db.QueryRowContext(ctx, query, code))
}

func (r *PostgresRepository) scanCode(row *sql.Row) (*models.SessionCode, error) {
	c := &models.SessionCode{}
	err := row.Scan(&c.Code, &c.Used, &c.Created, &c.UserID, &c.Scene)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, code string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM codes WHERE code = $1`, code)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
