package services

import (
	"context"
	"errors"

	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"
	"natours_backend/internal/validator"
	"natours_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// UserService - операции пользователя над собственной учетной записью
type UserService interface {
	GetMe(ctx context.Context, db *gorm.DB, userID string) (*models.User, error)
	UpdateMe(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateMeRequest) (*models.User, error)
	DeleteMe(ctx context.Context, db *gorm.DB, userID string) error
}

type userService struct {
	repo      repositories.UserRepository
	validator *validator.Validator
}

func NewUserService(repo repositories.UserRepository, v *validator.Validator) UserService {
	return &userService{repo: repo, validator: v}
}

func (s *userService) GetMe(ctx context.Context, db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.repo.FindActiveByID(db, userID)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

// UpdateMe меняет только name, email и фото
func (s *userService) UpdateMe(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateMeRequest) (*models.User, error) {
	if req.TouchesPassword() {
		return nil, apperrors.ErrPasswordUpdateNotAllowed
	}

	user, err := s.repo.FindActiveByID(db, userID)
	if err != nil {
		return nil, userError(err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Photo != "" {
		user.Photo = req.Photo
	}
	user.Normalize()

	if err := s.validator.Validate(user); err != nil {
		return nil, apperrors.Translate(err)
	}
	if err := s.repo.Save(db, user); err != nil {
		return nil, apperrors.Translate(err)
	}

	logger.CtxInfo(ctx, "User updated own profile", "user_id", userID)
	return user, nil
}

// DeleteMe - мягкое удаление: active=false
func (s *userService) DeleteMe(ctx context.Context, db *gorm.DB, userID string) error {
	if err := s.repo.Deactivate(db, userID); err != nil {
		return userError(err)
	}
	logger.CtxInfo(ctx, "User deactivated", "user_id", userID)
	return nil
}

func userError(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) || errors.Is(err, repositories.ErrNotFound) {
		return apperrors.ErrUserNoLongerExists
	}
	return apperrors.InternalError(err)
}
