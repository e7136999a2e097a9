package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"natours_backend/internal/auth"
	"natours_backend/internal/email"
	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"
	"natours_backend/internal/validator"
	"natours_backend/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type AuthService interface {
	Signup(ctx context.Context, db *gorm.DB, req *dto.SignupRequest) (*dto.AuthResult, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResult, error)
	// Authenticate - проверка токена на каждом защищенном запросе
	Authenticate(ctx context.Context, db *gorm.DB, token string) (*models.User, error)
	ForgotPassword(ctx context.Context, db *gorm.DB, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, db *gorm.DB, token string, req *dto.ResetPasswordRequest) (*dto.AuthResult, error)
	UpdatePassword(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdatePasswordRequest) (*dto.AuthResult, error)
}

// AuthConfig - BaseURL нужен для ссылок в письмах
type AuthConfig struct {
	BaseURL      string
	PasswordCost int
	Now          func() time.Time
}

type AuthServiceImpl struct {
	userRepo  repositories.UserRepository
	tokens    *auth.TokenManager
	mailer    email.Mailer
	validator *validator.Validator
	cfg       AuthConfig
}

func NewAuthService(
	userRepo repositories.UserRepository,
	tokens *auth.TokenManager,
	mailer email.Mailer,
	v *validator.Validator,
	cfg AuthConfig,
) AuthService {
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = auth.PasswordCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &AuthServiceImpl{
		userRepo:  userRepo,
		tokens:    tokens,
		mailer:    mailer,
		validator: v,
		cfg:       cfg,
	}
}

// Signup - роль всегда user, письмо-приветствие не блокирует регистрацию
func (s *AuthServiceImpl) Signup(ctx context.Context, db *gorm.DB, req *dto.SignupRequest) (*dto.AuthResult, error) {
	user := models.NewUser()
	user.Name = req.Name
	user.Email = req.Email
	user.Normalize()

	if err := s.validator.Validate(user); err != nil {
		return nil, apperrors.Translate(err)
	}

	hash, err := auth.HashPasswordWithCost(req.Password, s.cfg.PasswordCost)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(db, user); err != nil {
		return nil, apperrors.Translate(err)
	}

	logger.CtxInfo(ctx, "User signed up", "user_id", user.ID)

	if err := s.mailer.SendTemplatedEmail(ctx, email.Message{
		To:       user.Email,
		Name:     user.FirstName(),
		Subject:  "Welcome to the Natours Family!",
		Template: email.TemplateWelcome,
		URL:      s.cfg.BaseURL + "/me",
	}); err != nil {
		logger.CtxWithError(ctx, "Failed to send welcome email", err, "user_id", user.ID)
	}

	return s.issue(user)
}

// Login - неизвестный email и неверный пароль неразличимы
func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResult, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	if emailAddr == "" || req.Password == "" {
		return nil, apperrors.ErrMissingCredentials
	}

	user, err := s.userRepo.FindByEmail(db, emailAddr)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "Login failed: wrong password", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, db *gorm.DB, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.ErrNotLoggedIn
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired.WithError(err)
		}
		return nil, apperrors.ErrInvalidToken.WithError(err)
	}

	userID := claims.UserID()
	if checkID(userID) != nil {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindActiveByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNoLongerExists
		}
		return nil, apperrors.InternalError(err)
	}

	if user.ChangedPasswordAfter(claims.IssuedAtTime()) {
		return nil, apperrors.ErrPasswordChanged
	}

	return user, nil
}

// ForgotPassword: в базе только sha256 токена, открытый токен уходит письмом.
// Если письмо не ушло, токен стирается.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, db *gorm.DB, req *dto.ForgotPasswordRequest) error {
	user, err := s.userRepo.FindByEmail(db, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNoUserWithEmail
		}
		return apperrors.InternalError(err)
	}

	token, err := auth.NewResetToken(s.cfg.Now())
	if err != nil {
		return apperrors.InternalError(err)
	}
	user.PasswordResetToken = &token.Hash
	user.PasswordResetExpires = &token.ExpiresAt
	if err := s.userRepo.Save(db, user); err != nil {
		return apperrors.InternalError(err)
	}

	err = s.mailer.SendTemplatedEmail(ctx, email.Message{
		To:       user.Email,
		Name:     user.FirstName(),
		Subject:  "Your password reset token (valid for 10 min)",
		Template: email.TemplatePasswordReset,
		URL:      s.cfg.BaseURL + "/api/v1/users/reset-password/" + token.Plain,
	})
	if err != nil {
		user.ClearPasswordReset()
		if saveErr := s.userRepo.Save(db, user); saveErr != nil {
			logger.CtxWithError(ctx, "Failed to clear reset token", saveErr, "user_id", user.ID)
		}
		return apperrors.ErrEmailDelivery.WithError(err)
	}

	logger.CtxInfo(ctx, "Password reset token sent", "user_id", user.ID)
	return nil
}

// ResetPassword - токен одноразовый, просроченный и неизвестный неразличимы
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, db *gorm.DB, token string, req *dto.ResetPasswordRequest) (*dto.AuthResult, error) {
	now := s.cfg.Now()
	tokenHash := auth.HashResetToken(token)
	user, err := s.userRepo.FindByResetToken(db, tokenHash, now)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrResetTokenInvalid
		}
		return nil, apperrors.InternalError(err)
	}

	if err := s.setPassword(user, req.Password, now); err != nil {
		return nil, err
	}
	user.ClearPasswordReset()

	// токен мог быть использован между поиском и записью
	if err := s.userRepo.ConsumeResetToken(db, user, tokenHash, now); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrResetTokenInvalid
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Password reset", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdatePasswordRequest) (*dto.AuthResult, error) {
	user, err := s.userRepo.FindActiveByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNoLongerExists
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.PasswordCurrent, user.PasswordHash) {
		return nil, apperrors.ErrWrongCurrentPassword
	}

	if err := s.setPassword(user, req.Password, s.cfg.Now()); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(db, user); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Password updated", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthServiceImpl) setPassword(user *models.User, password string, now time.Time) error {
	if len(password) < auth.MinPasswordLength {
		return apperrors.FromFieldErrors(map[string]string{
			"password": "Password should have at least 8 chars",
		})
	}
	hash, err := auth.HashPasswordWithCost(password, s.cfg.PasswordCost)
	if err != nil {
		return apperrors.InternalError(err)
	}
	user.PasswordHash = hash
	user.MarkPasswordChanged(now)
	return nil
}

func (s *AuthServiceImpl) issue(user *models.User) (*dto.AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResult{
		Token:     token,
		ExpiresAt: s.cfg.Now().Add(s.tokens.TTL()),
		User:      user,
	}, nil
}
