package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/providers"
	"github.com/storedir/backend/internal/domain/repositories"
	"github.com/storedir/backend/internal/infrastructure/observability"
	"github.com/storedir/backend/pkg/config"
	apperrors "github.com/storedir/backend/pkg/errors"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthService handles registration, login and password recovery.
type AuthService struct {
	users  repositories.UserRepository
	mailer providers.Mailer
	cfg    *config.AuthConfig
	mail   *config.MailConfig
}

// NewAuthService creates a new auth service
func NewAuthService(users repositories.UserRepository, mailer providers.Mailer, cfg *config.AuthConfig, mail *config.MailConfig) *AuthService {
	return &AuthService{
		users:  users,
		mailer: mailer,
		cfg:    cfg,
		mail:   mail,
	}
}

// Register creates a new user account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, apperrors.NewValidationError("you must supply a name")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("that email isn't valid")
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a signed token. Unknown
// emails and wrong passwords both report invalid credentials so the
// response does not reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *entities.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return "", nil, apperrors.NewUnauthorizedError("invalid email or password")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ValidateToken parses a bearer token and returns the user ID it was
// issued for.
func (s *AuthService) ValidateToken(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", apperrors.NewUnauthorizedError("invalid or expired token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperrors.NewUnauthorizedError("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", apperrors.NewUnauthorizedError("invalid token claims")
	}
	return sub, nil
}

// Account returns the authenticated user's own record.
func (s *AuthService) Account(ctx context.Context, userID string) (*entities.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateAccount updates the user's own name and email.
func (s *AuthService) UpdateAccount(ctx context.Context, userID, name, email string) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, apperrors.NewValidationError("you must supply a name")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("that email isn't valid")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Email = email
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Forgot starts a password reset: it stores a short-lived random token on
// the account and mails the reset link to the user.
func (s *AuthService) Forgot(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return apperrors.NewInternalError("failed to generate reset token", err)
	}
	token := hex.EncodeToString(buf)
	expires := time.Now().UTC().Add(time.Duration(s.cfg.ResetTTLHours) * time.Hour)

	user.ResetToken = token
	user.ResetExpires = &expires
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/account/reset/%s", strings.TrimRight(s.mail.BaseURL, "/"), token)
	req := providers.MailRequest{
		To:       user.Email,
		Subject:  "Password Reset",
		TextBody: fmt.Sprintf("You requested a password reset. Visit %s to choose a new password. The link expires in %d hour(s).", resetURL, s.cfg.ResetTTLHours),
		HTMLBody: fmt.Sprintf(`<p>You requested a password reset.</p><p><a href="%s">Reset your password</a></p><p>The link expires in %d hour(s).</p>`, resetURL, s.cfg.ResetTTLHours),
	}
	if err := s.mailer.Send(ctx, req); err != nil {
		observability.GetLogger().Error().Err(err).Str("user_id", user.ID).Msg("failed to send password reset mail")
		return err
	}
	return nil
}

// Reset completes a password reset using a token from Forgot. Expired or
// unknown tokens are rejected, and a successful reset clears the token so
// it cannot be replayed.
func (s *AuthService) Reset(ctx context.Context, token, password, confirm string) (*entities.User, error) {
	if password != confirm {
		return nil, apperrors.NewValidationError("passwords do not match")
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters")
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	user.PasswordHash = string(hash)
	user.ResetToken = ""
	user.ResetExpires = nil
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.TokenTTLHours) * time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", apperrors.NewInternalError("failed to sign token", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
