package codes

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/roadsvr/backend/internal/common"
	"github.com/roadsvr/backend/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestFindUnused_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+code,\s*used,\s*created,\s*user_id,\s*scene\s+FROM\s+codes\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+scene\s*=\s*\$2\s+AND\s+NOT\s+used\s*$`

	rows := sqlmock.NewRows([]string{"code", "used", "created", "user_id", "scene"}).
		AddRow("123456", false, time.Now(), int64(7), 3)
	mock.ExpectQuery(q).
		WithArgs(int64(7), 3).
		WillReturnRows(rows)

	got, err := repo.FindUnused(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("FindUnused error: %v", err)
	}
	if got.Code != "123456" || got.Scene != 3 {
		t.Fatalf("unexpected code: %+v", got)
	}
}

func TestFindUnused_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs(int64(7), 3).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindUnused(context.Background(), 7, 3)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+codes\s*\(code,\s*used,\s*user_id,\s*scene\)\s*VALUES\s*\(\$1,\s*FALSE,\s*\$2,\s*\$3\)\s*$`

	mock.ExpectExec(q).
		WithArgs("654321", int64(7), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), &models.SessionCode{Code: "654321", UserID: 7, Scene: 3})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
}

func TestInsert_PreservesDriverError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	cause := errors.New("duplicate key value violates unique constraint")
	mock.ExpectExec(`INSERT\s+INTO\s+codes`).
		WithArgs("654321", int64(7), 3).
		WillReturnError(cause)

	err := repo.Insert(context.Background(), &models.SessionCode{Code: "654321", UserID: 7, Scene: 3})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestFindByCode_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("123456").
		WillReturnError(errors.New("db down"))

	_, err := repo.FindByCode(context.Background(), "123456")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete_ReturnsAffectedRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+codes\s+WHERE\s+code\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs("123456").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.Delete(context.Background(), "123456")
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if n != 1 {
		t.Fatalf("unexpected affected rows: %d", n)
	}
}

func TestDelete_NothingDeleted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+codes`).
		WithArgs("999999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.Delete(context.Background(), "999999")
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if n != 0 {
		t.Fatalf("unexpected affected rows: %d", n)
	}
}
