package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/providers"
	"github.com/storedir/backend/pkg/config"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// stubUserRepo implements repositories.UserRepository over a map keyed by
// email.
type stubUserRepo struct {
	byEmail map[string]*entities.User
	updated *entities.User
}

func newStubUserRepo(users ...*entities.User) *stubUserRepo {
	repo := &stubUserRepo{byEmail: map[string]*entities.User{}}
	for _, u := range users {
		repo.byEmail[u.Email] = u
	}
	return repo
}

func (s *stubUserRepo) Create(ctx context.Context, user *entities.User) error {
	if _, ok := s.byEmail[user.Email]; ok {
		return apperrors.NewConflictError("an account with this email already exists")
	}
	s.byEmail[user.Email] = user
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*entities.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func (s *stubUserRepo) GetByResetToken(ctx context.Context, token string) (*entities.User, error) {
	for _, u := range s.byEmail {
		if u.ResetToken == token && u.ResetExpires != nil && u.ResetExpires.After(time.Now()) {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFoundError("reset token is invalid or expired")
}

func (s *stubUserRepo) Update(ctx context.Context, user *entities.User) error {
	s.updated = user
	return nil
}

// stubMailer records sent mail.
type stubMailer struct {
	sent []providers.MailRequest
	err  error
}

func (s *stubMailer) Send(ctx context.Context, req providers.MailRequest) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, req)
	return nil
}

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenTTLHours: 1,
		BcryptCost:    bcrypt.MinCost,
		ResetTTLHours: 1,
	}
}

func testMailConfig() *config.MailConfig {
	return &config.MailConfig{BaseURL: "http://localhost:8080"}
}

func TestAuthService_Register(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, &stubMailer{}, testAuthConfig(), testMailConfig())

	user, err := svc.Register(context.Background(), "Wes", "  Wes@Example.COM ", "correct horse")

	assert.NoError(t, err)
	assert.Equal(t, "wes@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), &stubMailer{}, testAuthConfig(), testMailConfig())

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"empty name", "", "a@b.com", "long enough"},
		{"bad email", "Wes", "not-an-email", "long enough"},
		{"short password", "Wes", "a@b.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	repo := newStubUserRepo(&entities.User{
		ID:           "user-1",
		Email:        "wes@example.com",
		PasswordHash: string(hash),
	})
	svc := NewAuthService(repo, &stubMailer{}, testAuthConfig(), testMailConfig())

	token, user, err := svc.Login(context.Background(), "wes@example.com", "correct horse")

	assert.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	userID, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	repo := newStubUserRepo(&entities.User{
		ID:           "user-1",
		Email:        "wes@example.com",
		PasswordHash: string(hash),
	})
	svc := NewAuthService(repo, &stubMailer{}, testAuthConfig(), testMailConfig())

	_, _, err := svc.Login(context.Background(), "wes@example.com", "wrong")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "correct horse")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestAuthService_ValidateToken_Garbage(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), &stubMailer{}, testAuthConfig(), testMailConfig())

	_, err := svc.ValidateToken("not.a.jwt")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestAuthService_Forgot_SendsResetLink(t *testing.T) {
	repo := newStubUserRepo(&entities.User{ID: "user-1", Email: "wes@example.com"})
	mailer := &stubMailer{}
	svc := NewAuthService(repo, mailer, testAuthConfig(), testMailConfig())

	err := svc.Forgot(context.Background(), "wes@example.com")

	assert.NoError(t, err)
	assert.NotEmpty(t, repo.updated.ResetToken)
	assert.NotNil(t, repo.updated.ResetExpires)
	assert.Len(t, mailer.sent, 1)
	assert.Equal(t, "wes@example.com", mailer.sent[0].To)
	assert.True(t, strings.Contains(mailer.sent[0].TextBody, repo.updated.ResetToken))
}

func TestAuthService_Forgot_UnknownEmail(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), &stubMailer{}, testAuthConfig(), testMailConfig())

	err := svc.Forgot(context.Background(), "nobody@example.com")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestAuthService_Reset(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	user := &entities.User{
		ID:           "user-1",
		Email:        "wes@example.com",
		ResetToken:   "abc123",
		ResetExpires: &expires,
	}
	repo := newStubUserRepo(user)
	svc := NewAuthService(repo, &stubMailer{}, testAuthConfig(), testMailConfig())

	got, err := svc.Reset(context.Background(), "abc123", "new password", "new password")

	assert.NoError(t, err)
	assert.Empty(t, got.ResetToken)
	assert.Nil(t, got.ResetExpires)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("new password")))
}

func TestAuthService_Reset_MismatchedPasswords(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), &stubMailer{}, testAuthConfig(), testMailConfig())

	_, err := svc.Reset(context.Background(), "abc123", "one", "two")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestAuthService_Reset_ExpiredToken(t *testing.T) {
	expires := time.Now().Add(-time.Minute)
	repo := newStubUserRepo(&entities.User{
		ID:           "user-1",
		Email:        "wes@example.com",
		ResetToken:   "abc123",
		ResetExpires: &expires,
	})
	svc := NewAuthService(repo, &stubMailer{}, testAuthConfig(), testMailConfig())

	_, err := svc.Reset(context.Background(), "abc123", "new password", "new password")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
