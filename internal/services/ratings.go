package services

import (
	"context"
	"errors"

	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/internal/repositories"

	"gorm.io/gorm"
)

// RatingCalculator поддерживает агрегат отзывов в строке тура
type RatingCalculator struct {
	tours   repositories.TourRepository
	reviews repositories.ReviewRepository
}

func NewRatingCalculator(tours repositories.TourRepository, reviews repositories.ReviewRepository) *RatingCalculator {
	return &RatingCalculator{tours: tours, reviews: reviews}
}

// LockTour берет блокировку строки тура до записи отзыва: пересчеты
// одного тура выполняются строго по очереди. Тура может не быть (ссылки
// не каскадные), тогда блокировать нечего.
func (c *RatingCalculator) LockTour(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	if review.Tour.ID == "" {
		return nil
	}
	if _, err := c.tours.FindByIDForUpdate(tx, review.Tour.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.CtxWarn(ctx, "Review references missing tour", "tour_id", review.Tour.ID)
			return nil
		}
		return err
	}
	return nil
}

// AfterReviewChange - Stage для create/update/delete отзыва
func (c *RatingCalculator) AfterReviewChange(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	_, err := c.Recalculate(ctx, tx, review.Tour.ID)
	return err
}

// Recalculate: количество и среднее по всем отзывам тура
func (c *RatingCalculator) Recalculate(ctx context.Context, tx *gorm.DB, tourID string) (models.RatingStats, error) {
	ratings, err := c.reviews.RatingsForTour(tx, tourID)
	if err != nil {
		return models.RatingStats{}, err
	}
	stats := models.ComputeRatingStats(ratings)
	if err := c.tours.UpdateRatings(tx, tourID, stats); err != nil {
		return models.RatingStats{}, err
	}
	logger.CtxDebug(ctx, "Tour ratings recalculated",
		"tour_id", tourID,
		"quantity", stats.Quantity,
		"average", stats.Average,
	)
	return stats, nil
}

// RecalculateAll - после импорта данных
func (c *RatingCalculator) RecalculateAll(ctx context.Context, db *gorm.DB) error {
	ids, err := c.reviews.TourIDs(db)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := c.Recalculate(ctx, db, id); err != nil {
			return err
		}
	}
	return nil
}
