package repositories

import (
	"errors"

	"natours_backend/internal/models"

	"gorm.io/gorm"
)

var ErrTourNotFound = errors.New("tour not found")

// PublicTours - секретные туры не попадают в выборки
func PublicTours(db *gorm.DB) *gorm.DB {
	return db.Where("secret_tour = ?", false)
}

type TourRepository interface {
	ResourceRepository[models.Tour]

	FindBySlug(db *gorm.DB, slug string) (*models.Tour, error)
	FindPublic(db *gorm.DB) ([]models.Tour, error)
	FindByIDs(db *gorm.DB, ids []string) ([]models.Tour, error)
	Summaries(db *gorm.DB, ids []string) (map[string]*models.TourSummary, error)
	UpdateRatings(db *gorm.DB, tourID string, stats models.RatingStats) error
}

type TourRepositoryImpl struct {
	ResourceRepository[models.Tour]
}

func NewTourRepository() TourRepository {
	return &TourRepositoryImpl{ResourceRepository: NewResourceRepository[models.Tour]()}
}

func (r *TourRepositoryImpl) FindBySlug(db *gorm.DB, slug string) (*models.Tour, error) {
	var tour models.Tour
	err := PublicTours(db).Where("slug = ?", slug).Order("created_at").First(&tour).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return &tour, nil
}

// FindPublic - все несекретные туры (агрегаты, гео, обзорная страница)
func (r *TourRepositoryImpl) FindPublic(db *gorm.DB) ([]models.Tour, error) {
	var tours []models.Tour
	if err := PublicTours(db).Order("created_at").Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *TourRepositoryImpl) FindByIDs(db *gorm.DB, ids []string) ([]models.Tour, error) {
	var tours []models.Tour
	if len(ids) == 0 {
		return tours, nil
	}
	if err := db.Where("id IN ?", ids).Order("created_at").Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *TourRepositoryImpl) Summaries(db *gorm.DB, ids []string) (map[string]*models.TourSummary, error) {
	out := make(map[string]*models.TourSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Tour
	err := db.Select("id", "name", "slug", "image_cover", "price").Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].Summarize()
	}
	return out, nil
}

func (r *TourRepositoryImpl) UpdateRatings(db *gorm.DB, tourID string, stats models.RatingStats) error {
	return db.Model(&models.Tour{}).Where("id = ?", tourID).Updates(map[string]interface{}{
		"ratings_quantity": stats.Quantity,
		"ratings_average":  stats.Average,
	}).Error
}
