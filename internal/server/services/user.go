// Package services contains server-side business logic. This file implements
// UserService: registration, login, password recovery, profile updates and
// profile images.
package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/roadsvr/backend/internal/common"
	"github.com/roadsvr/backend/internal/server/apperr"
	"github.com/roadsvr/backend/internal/server/auth"
	"github.com/roadsvr/backend/internal/server/config"
	"github.com/roadsvr/backend/internal/server/imagestore"
	"github.com/roadsvr/backend/internal/server/mailx"
	"github.com/roadsvr/backend/internal/server/models"
	"github.com/roadsvr/backend/internal/server/repositories/repomanager"
)

var emailFormat = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// Fresh accounts start with a two-week license.
const starterLicenseDays = 15

// maxImageSize caps profile image uploads.
const maxImageSize = 300 * 1024

// Error codes for the auth group (-1000s) and user group (-2000s). The
// numbering is part of the public API contract and must stay stable.
const (
	codeCreateUser        = -1002
	codeUserExists        = -1003
	codeInvalidEmailReg   = -1004
	codeRecoveryBase      = -1100
	codeUpdatePassword    = -1101
	codeRecoveryNotFound  = -1102
	codeInvalidEmailRec   = -1103
	codeLoginLastLogin    = -1201
	codeBadCredentials    = -1202
	codeInvalidEmailLogin = -1203
	codeProfileLastLogin  = -2001
	codeProfileNotFound   = -2002
	codeUpdateName        = -2201
	codeSetPassword       = -2301
	codeBadOldPassword    = -2302
	codeImageBase         = -2400
	codeImageNotFound     = -2401
	codeImageStoreBase    = -2500
	codeImageTooLarge     = -2501
)

// Session is the outcome of a successful authentication flow: the user
// record plus a freshly minted token.
type Session struct {
	User  *models.User
	Token string
}

type UserService struct {
	db            *sql.DB
	repos         repomanager.RepositoryManager
	images        imagestore.Store
	mailer        mailx.Mailer
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, images imagestore.Store, mailer mailx.Mailer, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repos:         repos,
		images:        images,
		mailer:        mailer,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidity,
	}
}

func (s *UserService) issueToken(u *models.User) (string, error) {
	return auth.IssueToken(auth.Principal{UserID: u.ID, Level: u.Level}, s.jwtSecret, s.tokenValidity)
}

// Register creates an account with a starter license and returns a session.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*Session, error) {
	if !emailFormat.MatchString(email) {
		return nil, apperr.New(apperr.KindValidation, codeInvalidEmailReg, "invalid email")
	}

	repo := s.repos.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperr.New(apperr.KindConflict, codeUserExists, "user exists")
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, apperr.Storage(err, codeCreateUser)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Storage(err, codeCreateUser)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     name,
		Level:    0,
		License:  time.Now().Add(starterLicenseDays * 24 * time.Hour),
	}
	user, err = repo.Create(ctx, user)
	if err != nil {
		return nil, apperr.Storage(err, codeCreateUser)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, apperr.Storage(err, codeCreateUser)
	}
	return &Session{User: user, Token: token}, nil
}

// Login verifies credentials and returns a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	if !emailFormat.MatchString(email) {
		return nil, apperr.New(apperr.KindValidation, codeInvalidEmailLogin, "invalid email")
	}

	repo := s.repos.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.New(apperr.KindAuth, codeBadCredentials, "user not found or bad credentials")
		}
		return nil, apperr.Storage(err, codeBadCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperr.New(apperr.KindAuth, codeBadCredentials, "user not found or bad credentials")
	}

	if err := repo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, apperr.Storage(err, codeLoginLastLogin)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, apperr.Storage(err, codeBadCredentials)
	}
	return &Session{User: user, Token: token}, nil
}

// Recover replaces the user's password with a temporary one and hands it to
// the mailer. The temporary password is never logged or returned.
func (s *UserService) Recover(ctx context.Context, email string) error {
	if !emailFormat.MatchString(email) {
		return apperr.New(apperr.KindValidation, codeInvalidEmailRec, "invalid email")
	}

	repo := s.repos.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return apperr.New(apperr.KindNotFound, codeRecoveryNotFound, "user email not found")
		}
		return apperr.Storage(err, codeRecoveryBase)
	}

	tempPass, err := randomPassword(8)
	if err != nil {
		return apperr.Storage(err, codeRecoveryBase)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPass), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Storage(err, codeRecoveryBase)
	}
	if err := repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return apperr.Storage(err, codeUpdatePassword)
	}

	if err := s.mailer.SendPasswordReset(ctx, email, user.Name, tempPass); err != nil {
		return apperr.Storage(err, codeRecoveryBase)
	}
	return nil
}

// Profile returns the user record and a refreshed session token.
func (s *UserService) Profile(ctx context.Context, userID int64) (*Session, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.New(apperr.KindNotFound, codeProfileNotFound, "user not found or bad license")
		}
		return nil, apperr.Storage(err, codeProfileNotFound)
	}

	if err := repo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, apperr.Storage(err, codeProfileLastLogin)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, apperr.Storage(err, codeProfileNotFound)
	}
	return &Session{User: user, Token: token}, nil
}

func (s *UserService) ChangeName(ctx context.Context, userID int64, name string) error {
	err := s.repos.Users(s.db).UpdateName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return apperr.New(apperr.KindNotFound, codeUpdateName, "can't update user name")
		}
		return apperr.Storage(err, codeUpdateName)
	}
	return nil
}

// ChangePassword verifies the old password before storing a hash of the new
// one.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, newPass, oldPass string) error {
	repo := s.repos.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return apperr.New(apperr.KindAuth, codeBadOldPassword, "bad password")
		}
		return apperr.Storage(err, codeSetPassword)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPass)) != nil {
		return apperr.New(apperr.KindAuth, codeBadOldPassword, "bad password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPass), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Storage(err, codeSetPassword)
	}
	if err := repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperr.Storage(err, codeSetPassword)
	}
	return nil
}

// Image returns the stored profile image for the user.
func (s *UserService) Image(ctx context.Context, userID int64) ([]byte, error) {
	data, err := s.images.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, imagestore.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, codeImageNotFound, "image not found")
		}
		return nil, apperr.Storage(err, codeImageBase)
	}
	return data, nil
}

// UploadImage stores a new profile image, capped at maxImageSize.
func (s *UserService) UploadImage(ctx context.Context, userID int64, data []byte) error {
	if len(data) > maxImageSize {
		return apperr.New(apperr.KindValidation, codeImageTooLarge, "the image cannot exceed the size of 300 Kb")
	}
	if err := s.images.Put(ctx, userID, data); err != nil {
		return apperr.Storage(err, codeImageStoreBase)
	}
	return nil
}

const passwordCharset = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomPassword(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordCharset[n.Int64()]
	}
	return string(out), nil
}
