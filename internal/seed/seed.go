// Package seed загружает и удаляет демонстрационные данные из dev-data.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"natours_backend/internal/auth"
	"natours_backend/internal/logger"
	"natours_backend/internal/models"

	"gorm.io/gorm"
)

// Имена файлов в каталоге фикстур
const (
	ToursFile   = "tours.json"
	UsersFile   = "users.json"
	ReviewsFile = "reviews.json"
)

// userFixture - пользователь с паролем в открытом виде (в модели пароль скрыт)
type userFixture struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	Photo    string          `json:"photo"`
	Password string          `json:"password"`
	Active   *bool           `json:"active"`
}

type Fixtures struct {
	Tours   []*models.Tour
	Users   []*models.User
	Reviews []*models.Review
}

// RatingsRecalculator пересчитывает агрегаты рейтинга всех туров
type RatingsRecalculator interface {
	RecalculateAll(ctx context.Context, db *gorm.DB) error
}

// Load читает фикстуры и хэширует пароли. cost 0 - auth.PasswordCost.
func Load(dir string, cost int) (*Fixtures, error) {
	fx := &Fixtures{}

	var rawUsers []userFixture
	if err := readJSON(filepath.Join(dir, UsersFile), &rawUsers); err != nil {
		return nil, err
	}
	if cost == 0 {
		cost = auth.PasswordCost
	}
	for _, u := range rawUsers {
		user, err := u.toUser(cost)
		if err != nil {
			return nil, err
		}
		fx.Users = append(fx.Users, user)
	}

	var tours []json.RawMessage
	if err := readJSON(filepath.Join(dir, ToursFile), &tours); err != nil {
		return nil, err
	}
	for i, raw := range tours {
		tour := models.NewTour()
		if err := json.Unmarshal(raw, tour); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", ToursFile, i, err)
		}
		tour.Normalize()
		fx.Tours = append(fx.Tours, tour)
	}

	if err := readJSON(filepath.Join(dir, ReviewsFile), &fx.Reviews); err != nil {
		return nil, err
	}
	for _, r := range fx.Reviews {
		r.Normalize()
	}
	return fx, nil
}

func (u userFixture) toUser(cost int) (*models.User, error) {
	hash, err := auth.HashPasswordWithCost(u.Password, cost)
	if err != nil {
		return nil, fmt.Errorf("hash password for %s: %w", u.Email, err)
	}
	user := models.NewUser()
	user.ID = u.ID
	user.Name = u.Name
	user.Email = u.Email
	user.Photo = u.Photo
	user.PasswordHash = hash
	if u.Role != "" {
		user.Role = u.Role
	}
	if u.Active != nil {
		user.Active = *u.Active
	}
	user.Normalize()
	return user, nil
}

// Import вставляет фикстуры одной транзакцией и пересчитывает рейтинги туров
func Import(ctx context.Context, db *gorm.DB, fx *Fixtures, ratings RatingsRecalculator) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if len(fx.Users) > 0 {
			if err := tx.Create(fx.Users).Error; err != nil {
				return fmt.Errorf("insert users: %w", err)
			}
		}
		if len(fx.Tours) > 0 {
			if err := tx.Create(fx.Tours).Error; err != nil {
				return fmt.Errorf("insert tours: %w", err)
			}
		}
		if len(fx.Reviews) > 0 {
			if err := tx.Create(fx.Reviews).Error; err != nil {
				return fmt.Errorf("insert reviews: %w", err)
			}
		}
		return ratings.RecalculateAll(ctx, tx)
	})
	if err != nil {
		return err
	}

	logger.Info("Dev data imported",
		"users", len(fx.Users),
		"tours", len(fx.Tours),
		"reviews", len(fx.Reviews),
	)
	return nil
}

// Delete очищает все таблицы приложения
func Delete(db *gorm.DB) error {
	if err := db.Exec("TRUNCATE TABLE bookings, reviews, tours, users").Error; err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	logger.Info("Dev data deleted")
	return nil
}

func readJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
