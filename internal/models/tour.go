package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const DefaultRatingsAverage = 4.5

// GeoPoint - точка в формате GeoJSON: coordinates = [lng, lat]
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

func (p GeoPoint) Valid() bool {
	if len(p.Coordinates) != 2 {
		return false
	}
	lng, lat := p.Coordinates[0], p.Coordinates[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) < 1 {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

type Tour struct {
	BaseModel
	Name            string                         `gorm:"uniqueIndex;not null" json:"name" validate:"required,min=10,max=40"`
	Slug            string                         `gorm:"index" json:"slug"`
	Duration        int                            `gorm:"not null" json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int                            `gorm:"not null" json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      Difficulty                     `gorm:"type:varchar(20);not null" json:"difficulty" validate:"required,is-difficulty"`
	RatingsAverage  float64                        `gorm:"not null;default:4.5" json:"ratingsAverage" validate:"gte=1,lte=5"`
	RatingsQuantity int                            `gorm:"not null;default:0" json:"ratingsQuantity" validate:"gte=0"`
	Price           float64                        `gorm:"not null" json:"price" validate:"required,gt=0"`
	PriceDiscount   *float64                       `json:"priceDiscount,omitempty" validate:"omitempty,gte=0"`
	Summary         string                         `gorm:"not null" json:"summary" validate:"required"`
	Description     string                         `json:"description,omitempty"`
	ImageCover      string                         `gorm:"not null" json:"imageCover" validate:"required"`
	Images          pq.StringArray                 `gorm:"type:text[]" json:"images"`
	StartDates      datatypes.JSONSlice[time.Time] `gorm:"type:jsonb" json:"startDates"`
	SecretTour      bool                           `gorm:"not null;default:false;index" json:"secretTour,omitempty"`
	StartLocation   datatypes.JSONType[GeoPoint]   `gorm:"type:jsonb" json:"startLocation"`
	Locations       datatypes.JSONSlice[GeoPoint]  `gorm:"type:jsonb" json:"locations"`
	Guides          UserRefs                       `gorm:"type:jsonb" json:"guides" validate:"dive,uuid"`
	Reviews         []Review                       `gorm:"-" json:"reviews,omitempty"`
}

// NewTour - тур с дефолтами схемы
func NewTour() *Tour {
	return &Tour{
		RatingsAverage: DefaultRatingsAverage,
		Images:         pq.StringArray{},
		StartDates:     datatypes.JSONSlice[time.Time]{},
		Locations:      datatypes.JSONSlice[GeoPoint]{},
		Guides:         UserRefs{},
	}
}

// Normalize - trim текстов, slug из имени, рейтинг до одного знака.
// Вызывается на каждой записи.
func (t *Tour) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Slug = Slugify(t.Name)
	t.RatingsAverage = RoundRating(t.RatingsAverage)
}

func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

func (t *Tour) Location() GeoPoint {
	return t.StartLocation.Data()
}

// MarshalJSON добавляет виртуальное поле durationWeeks
func (t Tour) MarshalJSON() ([]byte, error) {
	type alias Tour
	return json.Marshal(struct {
		alias
		DurationWeeks float64 `json:"durationWeeks"`
	}{
		alias:         alias(t),
		DurationWeeks: t.DurationWeeks(),
	})
}

func (t *Tour) Summarize() *TourSummary {
	return &TourSummary{ID: t.ID, Name: t.Name, Slug: t.Slug, ImageCover: t.ImageCover, Price: t.Price}
}

// TourSummary - раскрытая ссылка на тур (бронирования, отзывы)
type TourSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug,omitempty"`
	ImageCover string  `json:"imageCover,omitempty"`
	Price      float64 `json:"price,omitempty"`
}
