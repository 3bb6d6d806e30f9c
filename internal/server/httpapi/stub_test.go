package httpapi

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/roadsvr/backend/internal/common"
	"github.com/roadsvr/backend/internal/dbx"
	"github.com/roadsvr/backend/internal/logging"
	"github.com/roadsvr/backend/internal/server/config"
	"github.com/roadsvr/backend/internal/server/imagestore"
	"github.com/roadsvr/backend/internal/server/models"
	codesrepo "github.com/roadsvr/backend/internal/server/repositories/codes"
	modulesrepo "github.com/roadsvr/backend/internal/server/repositories/modules"
	"github.com/roadsvr/backend/internal/server/repositories/repomanager"
	resultsrepo "github.com/roadsvr/backend/internal/server/repositories/results"
	usersrepo "github.com/roadsvr/backend/internal/server/repositories/users"
	"github.com/roadsvr/backend/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// stubState is shared backing data for the stub repositories.
type stubState struct {
	usersByEmail map[string]*models.User
	usersByID    map[int64]*models.User
	codesByCode  map[string]*models.SessionCode
	unusedCodes  map[[2]int64]*models.SessionCode
	results      []*models.Result
	modules      []*models.ModuleProgress

	deletedCodes []string
}

func newStubState() *stubState {
	return &stubState{
		usersByEmail: map[string]*models.User{},
		usersByID:    map[int64]*models.User{},
		codesByCode:  map[string]*models.SessionCode{},
		unusedCodes:  map[[2]int64]*models.SessionCode{},
	}
}

func (s *stubState) addUser(u *models.User) {
	s.usersByEmail[u.Email] = u
	s.usersByID[u.ID] = u
}

type stubUsers struct{ st *stubState }

func (r stubUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	u.ID = int64(len(r.st.usersByID) + 1)
	u.LastLogin = time.Now()
	r.st.addUser(u)
	return u, nil
}

func (r stubUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := r.st.usersByEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r stubUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.st.usersByID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r stubUsers) UpdateLastLogin(ctx context.Context, id int64) error { return nil }

func (r stubUsers) UpdateName(ctx context.Context, id int64, name string) error {
	u, ok := r.st.usersByID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Name = name
	return nil
}

func (r stubUsers) UpdatePassword(ctx context.Context, id int64, hash string) error {
	u, ok := r.st.usersByID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Password = hash
	return nil
}

func (r stubUsers) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.st.usersByID {
		out = append(out, u)
	}
	return out, nil
}

func (r stubUsers) ExtendLicense(ctx context.Context, id int64, days int) (time.Time, error) {
	u, ok := r.st.usersByID[id]
	if !ok {
		return time.Time{}, common.ErrorNotFound
	}
	u.License = u.License.Add(time.Duration(days) * 24 * time.Hour)
	return u.License, nil
}

func (r stubUsers) SetLicense(ctx context.Context, id int64, days int) (time.Time, error) {
	u, ok := r.st.usersByID[id]
	if !ok {
		return time.Time{}, common.ErrorNotFound
	}
	u.License = time.Now().Add(time.Duration(days) * 24 * time.Hour)
	return u.License, nil
}

func (r stubUsers) RevokeLicense(ctx context.Context, id int64) (time.Time, error) {
	u, ok := r.st.usersByID[id]
	if !ok {
		return time.Time{}, common.ErrorNotFound
	}
	u.License = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return u.License, nil
}

func (r stubUsers) SetLevel(ctx context.Context, id int64, level int) (int, error) {
	u, ok := r.st.usersByID[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.Level = level
	return u.Level, nil
}

type stubCodes struct{ st *stubState }

func (r stubCodes) FindUnused(ctx context.Context, userID int64, scene int) (*models.SessionCode, error) {
	c, ok := r.st.unusedCodes[[2]int64{userID, int64(scene)}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (r stubCodes) Insert(ctx context.Context, code *models.SessionCode) error {
	r.st.codesByCode[code.Code] = code
	r.st.unusedCodes[[2]int64{code.UserID, int64(code.Scene)}] = code
	return nil
}

func (r stubCodes) FindByCode(ctx context.Context, code string) (*models.SessionCode, error) {
	c, ok := r.st.codesByCode[code]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (r stubCodes) Delete(ctx context.Context, code string) (int64, error) {
	c, ok := r.st.codesByCode[code]
	if !ok {
		return 0, nil
	}
	delete(r.st.codesByCode, code)
	delete(r.st.unusedCodes, [2]int64{c.UserID, int64(c.Scene)})
	r.st.deletedCodes = append(r.st.deletedCodes, code)
	return 1, nil
}

type stubResults struct{ st *stubState }

func (r stubResults) DeleteFor(ctx context.Context, userID int64, platform, scene int) error {
	kept := r.st.results[:0]
	for _, res := range r.st.results {
		if res.UserID == userID && res.Platform == platform && res.Scene == scene {
			continue
		}
		kept = append(kept, res)
	}
	r.st.results = kept
	return nil
}

func (r stubResults) Insert(ctx context.Context, result *models.Result) error {
	result.Date = time.Now()
	r.st.results = append(r.st.results, result)
	return nil
}

func (r stubResults) Find(ctx context.Context, userID int64, platform, scene int) (*models.Result, error) {
	for _, res := range r.st.results {
		if res.UserID == userID && res.Platform == platform && res.Scene == scene {
			return res, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r stubResults) ListByUser(ctx context.Context, userID int64, platform int) ([]*models.Result, error) {
	var out []*models.Result
	for _, res := range r.st.results {
		if res.UserID == userID && res.Platform == platform {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r stubResults) ListAll(ctx context.Context, platform int) ([]*models.Result, error) {
	var out []*models.Result
	for _, res := range r.st.results {
		if res.Platform == platform {
			out = append(out, res)
		}
	}
	return out, nil
}

type stubModules struct{ st *stubState }

func (r stubModules) ListByUser(ctx context.Context, userID int64) ([]*models.ModuleProgress, error) {
	var out []*models.ModuleProgress
	for _, m := range r.st.modules {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r stubModules) Get(ctx context.Context, userID int64, module int) (*models.ModuleProgress, error) {
	for _, m := range r.st.modules {
		if m.UserID == userID && m.Module == module {
			return m, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r stubModules) UpsertProgress(ctx context.Context, userID int64, module, progress int) error {
	for _, m := range r.st.modules {
		if m.UserID == userID && m.Module == module {
			m.Progress = progress
			return nil
		}
	}
	r.st.modules = append(r.st.modules, &models.ModuleProgress{UserID: userID, Module: module, Progress: progress})
	return nil
}

func (r stubModules) UpsertQuizz(ctx context.Context, userID int64, module, state int) error {
	for _, m := range r.st.modules {
		if m.UserID == userID && m.Module == module {
			m.Quizz = state
			return nil
		}
	}
	r.st.modules = append(r.st.modules, &models.ModuleProgress{UserID: userID, Module: module, Quizz: state})
	return nil
}

type stubRepoManager struct{ st *stubState }

func (m stubRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m stubRepoManager) Users(db dbx.DBTX) usersrepo.Repository     { return stubUsers{m.st} }
func (m stubRepoManager) Codes(db dbx.DBTX) codesrepo.Repository     { return stubCodes{m.st} }
func (m stubRepoManager) Results(db dbx.DBTX) resultsrepo.Repository { return stubResults{m.st} }
func (m stubRepoManager) Modules(db dbx.DBTX) modulesrepo.Repository { return stubModules{m.st} }

type memImageStore struct{ data map[int64][]byte }

func (s memImageStore) Put(ctx context.Context, userID int64, data []byte) error {
	s.data[userID] = data
	return nil
}

func (s memImageStore) Get(ctx context.Context, userID int64) ([]byte, error) {
	d, ok := s.data[userID]
	if !ok {
		return nil, imagestore.ErrNotFound
	}
	return d, nil
}

type nopMailer struct{}

func (nopMailer) SendPasswordReset(ctx context.Context, email, name, tempPassword string) error {
	return nil
}

const testSecret = "test-secret"

// newTestServer builds a full Server on stub storage. The sqlmock handle
// only participates in transactional paths; tests that close codes or
// submit web results must queue Begin/Commit expectations.
func newTestServer(t *testing.T) (*Server, *stubState, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := newStubState()
	var rm repomanager.RepositoryManager = stubRepoManager{st}
	images := memImageStore{data: map[int64][]byte{}}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret

	us := services.NewUserService(db, rm, images, nopMailer{}, cfg)
	cs := services.NewCodeService(db, rm, images, cfg)
	rs := services.NewResultService(db, rm)
	ls := services.NewLicenseService(db, rm)
	ms := services.NewModuleService(db, rm)

	return NewServer(cfg, nopLogger{}, us, cs, rs, ls, ms), st, mock
}
