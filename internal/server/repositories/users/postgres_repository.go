package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password, name, level, license)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, last_login`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Password, user.Name, user.Level, user.License).Scan(&user.ID, &user.LastLogin)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, password, last_login, name, level, license FROM users
		 WHERE email = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, email, password, last_login, name, level, license FROM users
		 WHERE id = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Password, &user.LastLogin,
		&user.Name, &user.Level, &user.License)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE users SET last_login = now() WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id int64, name string) error {
	return r.execOne(ctx, `UPDATE users SET name = $1 WHERE id = $2`, name, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execOne(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
}

// execOne runs an update that must touch exactly one row; anything else is
// reported as not-found.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	query :=
		`SELECT id, email, name, license, level FROM users
		 ORDER BY id
		 LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.License, &u.Level); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

func (r *PostgresRepository) ExtendLicense(ctx context.Context, id int64, days int) (time.Time, error) {
	query := `UPDATE users SET license = license + make_interval(days => $1) WHERE id = $2 RETURNING license`
	return r.scanLicense(r.db.QueryRowContext(ctx, query, days, id))
}

func (r *PostgresRepository) SetLicense(ctx context.Context, id int64, days int) (time.Time, error) {
	query := `UPDATE users SET license = now() + make_interval(days => $1) WHERE id = $2 RETURNING license`
	return r.scanLicense(r.db.QueryRowContext(ctx, query, days, id))
}

func (r *PostgresRepository) RevokeLicense(ctx context.Context, id int64) (time.Time, error) {
	query := `UPDATE users SET license = '2020-01-01 00:00:00+00' WHERE id = $1 RETURNING license`
	return r.scanLicense(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanLicense(row *sql.Row) (time.Time, error) {
	var license time.Time
	if err := row.Scan(&license); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrorNotFound
		}
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return license, nil
}

func (r *PostgresRepository) SetLevel(ctx context.Context, id int64, level int) (int, error) {
	query := `UPDATE users SET level = $1 WHERE id = $2 RETURNING level`

	var got int
	if err := r.db.QueryRowContext(ctx, query, level, id).Scan(&got); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return got, nil
}
