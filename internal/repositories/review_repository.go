package repositories

import (
	"natours_backend/internal/models"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	ResourceRepository[models.Review]

	FindByTour(db *gorm.DB, tourID string) ([]models.Review, error)
	RatingsForTour(db *gorm.DB, tourID string) ([]int, error)
	TourIDs(db *gorm.DB) ([]string, error)
}

type ReviewRepositoryImpl struct {
	ResourceRepository[models.Review]
}

func NewReviewRepository() ReviewRepository {
	return &ReviewRepositoryImpl{ResourceRepository: NewResourceRepository[models.Review]()}
}

func (r *ReviewRepositoryImpl) FindByTour(db *gorm.DB, tourID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := db.Where("tour_id = ?", tourID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// RatingsForTour - все оценки тура, из них считается агрегат
func (r *ReviewRepositoryImpl) RatingsForTour(db *gorm.DB, tourID string) ([]int, error) {
	var ratings []int
	err := db.Model(&models.Review{}).Where("tour_id = ?", tourID).Pluck("rating", &ratings).Error
	return ratings, err
}

// TourIDs - туры, у которых есть отзывы (пересчет после импорта)
func (r *ReviewRepositoryImpl) TourIDs(db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.Model(&models.Review{}).Distinct("tour_id").Pluck("tour_id", &ids).Error
	return ids, err
}
