package repositories

import (
	"errors"
	"time"

	"natours_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

// ActiveUsers - деактивированные пользователи исключены из любых выборок
func ActiveUsers(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

type UserRepository interface {
	ResourceRepository[models.User]

	FindActiveByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByResetToken(db *gorm.DB, tokenHash string, now time.Time) (*models.User, error)
	ConsumeResetToken(db *gorm.DB, user *models.User, tokenHash string, now time.Time) error
	Summaries(db *gorm.DB, ids []string) (map[string]*models.UserSummary, error)
	Deactivate(db *gorm.DB, id string) error
	ClearExpiredResetTokens(db *gorm.DB, now time.Time) (int64, error)
}

type UserRepositoryImpl struct {
	ResourceRepository[models.User]
}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{ResourceRepository: NewResourceRepository[models.User]()}
}

func (r *UserRepositoryImpl) FindActiveByID(db *gorm.DB, id string) (*models.User, error) {
	user, err := r.FindByID(db, id, ActiveUsers)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := ActiveUsers(db).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByResetToken - не найден и просрочен неразличимы
func (r *UserRepositoryImpl) FindByResetToken(db *gorm.DB, tokenHash string, now time.Time) (*models.User, error) {
	var user models.User
	err := ActiveUsers(db).
		Where("password_reset_token = ? AND password_reset_expires > ?", tokenHash, now).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ConsumeResetToken записывает новый пароль и стирает токен одним условным
// UPDATE. Из параллельных сбросов по одному токену проходит только первый,
// остальные получают ErrUserNotFound.
func (r *UserRepositoryImpl) ConsumeResetToken(db *gorm.DB, user *models.User, tokenHash string, now time.Time) error {
	result := ActiveUsers(db.Model(&models.User{})).
		Where("id = ? AND password_reset_token = ? AND password_reset_expires > ?", user.ID, tokenHash, now).
		Updates(map[string]interface{}{
			"password_hash":          user.PasswordHash,
			"password_changed_at":    user.PasswordChangedAt,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Summaries - раскрытие ссылок на пользователей одним запросом
func (r *UserRepositoryImpl) Summaries(db *gorm.DB, ids []string) (map[string]*models.UserSummary, error) {
	out := make(map[string]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.UserSummary
	if err := ActiveUsers(db.Model(&models.User{})).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// Deactivate - мягкое удаление
func (r *UserRepositoryImpl) Deactivate(db *gorm.DB, id string) error {
	result := db.Model(&models.User{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) ClearExpiredResetTokens(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.User{}).
		Where("password_reset_expires IS NOT NULL AND password_reset_expires < ?", now).
		Updates(map[string]interface{}{
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	return result.RowsAffected, result.Error
}
