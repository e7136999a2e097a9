package models

import "strings"

type Review struct {
	BaseModel
	Review string  `gorm:"not null" json:"review" validate:"required"`
	Rating int     `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating" validate:"required,min=1,max=5"`
	Tour   TourRef `gorm:"column:tour_id;type:uuid;not null;uniqueIndex:idx_reviews_tour_user,priority:1" json:"tour" validate:"required,uuid"`
	User   UserRef `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reviews_tour_user,priority:2" json:"user" validate:"required,uuid"`
}

func NewReview() *Review {
	return &Review{}
}

func (r *Review) Normalize() {
	r.Review = strings.TrimSpace(r.Review)
}

// RatingStats - агрегат отзывов тура
type RatingStats struct {
	Quantity int
	Average  float64
}

// ComputeRatingStats: без отзывов - 0 и 4.5, иначе среднее с округлением
func ComputeRatingStats(ratings []int) RatingStats {
	if len(ratings) == 0 {
		return RatingStats{Quantity: 0, Average: DefaultRatingsAverage}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return RatingStats{
		Quantity: len(ratings),
		Average:  RoundRating(float64(sum) / float64(len(ratings))),
	}
}
