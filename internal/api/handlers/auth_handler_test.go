package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/storedir/backend/internal/application/services"
	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/providers"
	"github.com/storedir/backend/pkg/config"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// fakeUserRepo is an in-memory repositories.UserRepository.
type fakeUserRepo struct {
	users map[string]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entities.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entities.User) error {
	if _, ok := f.users[user.Email]; ok {
		return apperrors.NewConflictError("an account with this email already exists")
	}
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entities.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func (f *fakeUserRepo) GetByResetToken(ctx context.Context, token string) (*entities.User, error) {
	for _, u := range f.users {
		if u.ResetToken == token {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFoundError("reset token is invalid or expired")
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entities.User) error {
	f.users[user.Email] = user
	return nil
}

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, req providers.MailRequest) error { return nil }

func authHandlerFixture() (*AuthHandler, *fakeUserRepo) {
	repo := newFakeUserRepo()
	svc := services.NewAuthService(repo, noopMailer{}, &config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenTTLHours: 1,
		BcryptCost:    bcrypt.MinCost,
		ResetTTLHours: 1,
	}, &config.MailConfig{BaseURL: "http://localhost:8080"})
	return NewAuthHandler(svc), repo
}

func TestRegister(t *testing.T) {
	handler, repo := authHandlerFixture()

	body, _ := json.Marshal(map[string]string{
		"name":     "Wes",
		"email":    "wes@example.com",
		"password": "correct horse",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, repo.users, "wes@example.com")
	// The password hash must never leave the server.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_ShortPassword(t *testing.T) {
	handler, _ := authHandlerFixture()

	body, _ := json.Marshal(map[string]string{
		"name":     "Wes",
		"email":    "wes@example.com",
		"password": "short",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	handler, repo := authHandlerFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	repo.users["wes@example.com"] = &entities.User{
		ID:           "user-1",
		Email:        "wes@example.com",
		PasswordHash: string(hash),
	}

	body, _ := json.Marshal(map[string]string{
		"email":    "wes@example.com",
		"password": "correct horse",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Token string         `json:"token"`
		User  *entities.User `json:"user"`
	}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.NotEmpty(t, payload.Token)
	assert.Equal(t, "user-1", payload.User.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	handler, repo := authHandlerFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	repo.users["wes@example.com"] = &entities.User{
		ID:           "user-1",
		Email:        "wes@example.com",
		PasswordHash: string(hash),
	}

	body, _ := json.Marshal(map[string]string{
		"email":    "wes@example.com",
		"password": "wrong",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAccount(t *testing.T) {
	handler, repo := authHandlerFixture()
	repo.users["wes@example.com"] = &entities.User{
		ID:    "user-1",
		Name:  "Wes",
		Email: "wes@example.com",
	}

	req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
	rec := httptest.NewRecorder()

	handler.GetAccount(rec, authed(req, "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got entities.User
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "wes@example.com", got.Email)
}

func TestReset_UnknownToken(t *testing.T) {
	handler, _ := authHandlerFixture()

	body, _ := json.Marshal(map[string]string{
		"password":         "new password",
		"password_confirm": "new password",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/account/reset/bogus", bytes.NewReader(body))
	req.SetPathValue("token", "bogus")
	rec := httptest.NewRecorder()

	handler.Reset(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
