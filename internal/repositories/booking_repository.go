package repositories

import (
	"errors"

	"natours_backend/internal/models"

	"gorm.io/gorm"
)

type BookingRepository interface {
	ResourceRepository[models.Booking]

	FindByUser(db *gorm.DB, userID string) ([]models.Booking, error)
	FindBySession(db *gorm.DB, sessionID string) (*models.Booking, error)
}

type BookingRepositoryImpl struct {
	ResourceRepository[models.Booking]
}

func NewBookingRepository() BookingRepository {
	return &BookingRepositoryImpl{ResourceRepository: NewResourceRepository[models.Booking]()}
}

func (r *BookingRepositoryImpl) FindByUser(db *gorm.DB, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepositoryImpl) FindBySession(db *gorm.DB, sessionID string) (*models.Booking, error) {
	var booking models.Booking
	err := db.Where("stripe_session_id = ?", sessionID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}
