package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/roadsvr/backend/internal/common"
	"github.com/roadsvr/backend/internal/dbx"
	"github.com/roadsvr/backend/internal/server/imagestore"
	"github.com/roadsvr/backend/internal/server/models"
	codesrepo "github.com/roadsvr/backend/internal/server/repositories/codes"
	modulesrepo "github.com/roadsvr/backend/internal/server/repositories/modules"
	resultsrepo "github.com/roadsvr/backend/internal/server/repositories/results"
	usersrepo "github.com/roadsvr/backend/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmailOut *models.User
	byEmailErr error

	byIDOut *models.User
	byIDErr error

	lastLoginErr error

	updatedName     string
	updatedPassword string
	updateNameErr   error
	updatePassErr   error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = 1
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	if f.byEmailOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.byEmailOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	if f.byIDOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.byIDOut, nil
}

func (f *fakeUsersRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	return f.lastLoginErr
}

func (f *fakeUsersRepo) UpdateName(ctx context.Context, id int64, name string) error {
	f.updatedName = name
	return f.updateNameErr
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	f.updatedPassword = hash
	return f.updatePassErr
}

func (f *fakeUsersRepo) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	return nil, nil
}

func (f *fakeUsersRepo) ExtendLicense(ctx context.Context, id int64, days int) (time.Time, error) {
	return time.Time{}, common.ErrorNotFound
}

func (f *fakeUsersRepo) SetLicense(ctx context.Context, id int64, days int) (time.Time, error) {
	return time.Time{}, common.ErrorNotFound
}

func (f *fakeUsersRepo) RevokeLicense(ctx context.Context, id int64) (time.Time, error) {
	return time.Time{}, common.ErrorNotFound
}

func (f *fakeUsersRepo) SetLevel(ctx context.Context, id int64, level int) (int, error) {
	return level, nil
}

type fakeCodesRepo struct {
	unusedOut  *models.SessionCode
	unusedErr  error
	unusedNext []*models.SessionCode

	insertErrs []error
	inserted   []*models.SessionCode

	byCodeOut *models.SessionCode
	byCodeErr error

	deleteN   int64
	deleteErr error
	deleted   []string
}

func (f *fakeCodesRepo) FindUnused(ctx context.Context, userID int64, scene int) (*models.SessionCode, error) {
	if len(f.unusedNext) > 0 {
		next := f.unusedNext[0]
		f.unusedNext = f.unusedNext[1:]
		if next == nil {
			return nil, common.ErrorNotFound
		}
		return next, nil
	}
	if f.unusedErr != nil {
		return nil, f.unusedErr
	}
	if f.unusedOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.unusedOut, nil
}

func (f *fakeCodesRepo) Insert(ctx context.Context, code *models.SessionCode) error {
	f.inserted = append(f.inserted, code)
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		return err
	}
	return nil
}

func (f *fakeCodesRepo) FindByCode(ctx context.Context, code string) (*models.SessionCode, error) {
	if f.byCodeErr != nil {
		return nil, f.byCodeErr
	}
	if f.byCodeOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.byCodeOut, nil
}

func (f *fakeCodesRepo) Delete(ctx context.Context, code string) (int64, error) {
	f.deleted = append(f.deleted, code)
	return f.deleteN, f.deleteErr
}

type fakeResultsRepo struct {
	deleteForErr error
	deletedFor   [][3]any

	insertErr error
	inserted  []*models.Result

	findOut *models.Result
	findErr error

	listOut []*models.Result
	listErr error
}

func (f *fakeResultsRepo) DeleteFor(ctx context.Context, userID int64, platform, scene int) error {
	f.deletedFor = append(f.deletedFor, [3]any{userID, platform, scene})
	return f.deleteForErr
}

func (f *fakeResultsRepo) Insert(ctx context.Context, result *models.Result) error {
	f.inserted = append(f.inserted, result)
	return f.insertErr
}

func (f *fakeResultsRepo) Find(ctx context.Context, userID int64, platform, scene int) (*models.Result, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.findOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.findOut, nil
}

func (f *fakeResultsRepo) ListByUser(ctx context.Context, userID int64, platform int) ([]*models.Result, error) {
	return f.listOut, f.listErr
}

func (f *fakeResultsRepo) ListAll(ctx context.Context, platform int) ([]*models.Result, error) {
	return f.listOut, f.listErr
}

type fakeModulesRepo struct {
	listOut []*models.ModuleProgress
	listErr error

	getOut *models.ModuleProgress
	getErr error

	progressErr error
	quizzErr    error
}

func (f *fakeModulesRepo) ListByUser(ctx context.Context, userID int64) ([]*models.ModuleProgress, error) {
	return f.listOut, f.listErr
}

func (f *fakeModulesRepo) Get(ctx context.Context, userID int64, module int) (*models.ModuleProgress, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.getOut, nil
}

func (f *fakeModulesRepo) UpsertProgress(ctx context.Context, userID int64, module, progress int) error {
	return f.progressErr
}

func (f *fakeModulesRepo) UpsertQuizz(ctx context.Context, userID int64, module, state int) error {
	return f.quizzErr
}

// fakeRepoManager hands out the same fakes regardless of the db handle, so
// transactional code paths exercise the same state.
type fakeRepoManager struct {
	users   *fakeUsersRepo
	codes   *fakeCodesRepo
	results *fakeResultsRepo
	modules *fakeModulesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:   &fakeUsersRepo{},
		codes:   &fakeCodesRepo{},
		results: &fakeResultsRepo{},
		modules: &fakeModulesRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository     { return m.users }
func (m *fakeRepoManager) Codes(db dbx.DBTX) codesrepo.Repository     { return m.codes }
func (m *fakeRepoManager) Results(db dbx.DBTX) resultsrepo.Repository { return m.results }
func (m *fakeRepoManager) Modules(db dbx.DBTX) modulesrepo.Repository { return m.modules }

type fakeImageStore struct {
	data map[int64][]byte
	err  error
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{data: map[int64][]byte{}}
}

func (f *fakeImageStore) Put(ctx context.Context, userID int64, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.data[userID] = data
	return nil
}

func (f *fakeImageStore) Get(ctx context.Context, userID int64) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.data[userID]
	if !ok {
		return nil, imagestore.ErrNotFound
	}
	return d, nil
}

type fakeMailer struct {
	sentTo   []string
	lastPass string
	err      error
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, email, name, tempPassword string) error {
	if f.err != nil {
		return f.err
	}
	f.sentTo = append(f.sentTo, email)
	f.lastPass = tempPassword
	return nil
}
