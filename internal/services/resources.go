package services

import (
	"context"

	"natours_backend/internal/models"
	"natours_backend/internal/query"
	"natours_backend/internal/repositories"

	"gorm.io/gorm"
)

// Имена раскрытий
const (
	ExpandGuides  = "guides"
	ExpandReviews = "reviews"
	ExpandUser    = "user"
	ExpandTour    = "tour"
)

var baseSchema = query.Schema{
	"id":        {Name: "id", Kind: query.KindString},
	"createdAt": {Name: "created_at", Kind: query.KindTime},
	"updatedAt": {Name: "updated_at", Kind: query.KindTime},
}

func withBase(cols query.Schema) query.Schema {
	out := make(query.Schema, len(cols)+len(baseSchema))
	for k, v := range baseSchema {
		out[k] = v
	}
	for k, v := range cols {
		out[k] = v
	}
	return out
}

var TourSchema = withBase(query.Schema{
	"name":            {Name: "name", Kind: query.KindString},
	"slug":            {Name: "slug", Kind: query.KindString},
	"duration":        {Name: "duration", Kind: query.KindNumber},
	"maxGroupSize":    {Name: "max_group_size", Kind: query.KindNumber},
	"difficulty":      {Name: "difficulty", Kind: query.KindString},
	"ratingsAverage":  {Name: "ratings_average", Kind: query.KindNumber},
	"ratingsQuantity": {Name: "ratings_quantity", Kind: query.KindNumber},
	"price":           {Name: "price", Kind: query.KindNumber},
	"priceDiscount":   {Name: "price_discount", Kind: query.KindNumber},
	"summary":         {Name: "summary", Kind: query.KindString},
})

var UserSchema = withBase(query.Schema{
	"name":  {Name: "name", Kind: query.KindString},
	"email": {Name: "email", Kind: query.KindString},
	"role":  {Name: "role", Kind: query.KindString},
	"photo": {Name: "photo", Kind: query.KindString},
})

var ReviewSchema = withBase(query.Schema{
	"rating": {Name: "rating", Kind: query.KindNumber},
	"review": {Name: "review", Kind: query.KindString},
	"tour":   {Name: "tour_id", Kind: query.KindString},
	"user":   {Name: "user_id", Kind: query.KindString},
})

var BookingSchema = withBase(query.Schema{
	"price": {Name: "price", Kind: query.KindNumber},
	"paid":  {Name: "paid", Kind: query.KindBool},
	"tour":  {Name: "tour_id", Kind: query.KindString},
	"user":  {Name: "user_id", Kind: query.KindString},
})

// TourResource - гиды раскрываются всегда, отзывы только в ReadOne.
// Секретные туры не видны ни одной операции.
func TourResource(users repositories.UserRepository, reviews repositories.ReviewRepository) Resource[models.Tour] {
	reviewUsers := expandReviewUsers(users)
	return Resource[models.Tour]{
		Name:   "tour",
		Schema: TourSchema,
		Scopes: []repositories.Scope{repositories.PublicTours},
		New:    models.NewTour,
		Protect: func(current, item *models.Tour) {
			item.Reviews = nil
			if current == nil {
				item.RatingsQuantity = 0
				return
			}
			item.RatingsQuantity = current.RatingsQuantity
		},
		Expanders: map[string]Expander[models.Tour]{
			ExpandGuides: expandGuides(users),
			ExpandReviews: func(ctx context.Context, db *gorm.DB, tours []*models.Tour) error {
				for _, t := range tours {
					list, err := reviews.FindByTour(db, t.ID)
					if err != nil {
						return err
					}
					ptrs := make([]*models.Review, len(list))
					for i := range list {
						ptrs[i] = &list[i]
					}
					if err := reviewUsers(ctx, db, ptrs); err != nil {
						return err
					}
					t.Reviews = list
				}
				return nil
			},
		},
		ReadOne:  []string{ExpandGuides, ExpandReviews},
		ReadMany: []string{ExpandGuides},
	}
}

// UserResource - админский путь; деактивированные пользователи не видны
func UserResource() Resource[models.User] {
	return Resource[models.User]{
		Name:   "user",
		Schema: UserSchema,
		Scopes: []repositories.Scope{repositories.ActiveUsers},
		New:    models.NewUser,
		Protect: func(current, item *models.User) {
			if current == nil {
				return
			}
			item.Active = current.Active
			item.PasswordHash = current.PasswordHash
			item.PasswordChangedAt = current.PasswordChangedAt
			item.PasswordResetToken = current.PasswordResetToken
			item.PasswordResetExpires = current.PasswordResetExpires
		},
	}
}

// ReviewResource - любая запись отзыва пересчитывает рейтинг тура
// под блокировкой строки тура
func ReviewResource(users repositories.UserRepository, ratings *RatingCalculator) Resource[models.Review] {
	return Resource[models.Review]{
		Name:   "review",
		Schema: ReviewSchema,
		New:    models.NewReview,
		Protect: func(current, item *models.Review) {
			if current == nil {
				return
			}
			// ссылки неизменяемы после создания
			item.Tour = models.NewTourRef(current.Tour.ID)
			item.User = models.NewUserRef(current.User.ID)
		},
		Prepare:     ratings.LockTour,
		AfterWrite:  ratings.AfterReviewChange,
		AfterDelete: ratings.AfterReviewChange,
		Expanders: map[string]Expander[models.Review]{
			ExpandUser: expandReviewUsers(users),
		},
		ReadOne:  []string{ExpandUser},
		ReadMany: []string{ExpandUser},
	}
}

// ReviewRefs - тур из URL, если в теле его нет; автор всегда текущий пользователь
func ReviewRefs(tourID, userID string) Mutator[models.Review] {
	return func(r *models.Review) {
		if r.Tour.ID == "" && tourID != "" {
			r.Tour = models.NewTourRef(tourID)
		}
		r.User = models.NewUserRef(userID)
	}
}

func BookingResource(users repositories.UserRepository, tours repositories.TourRepository) Resource[models.Booking] {
	return Resource[models.Booking]{
		Name:   "booking",
		Schema: BookingSchema,
		New:    models.NewBooking,
		Protect: func(current, item *models.Booking) {
			if current == nil {
				item.StripeSessionID = nil
				return
			}
			item.StripeSessionID = current.StripeSessionID
		},
		Expanders: map[string]Expander[models.Booking]{
			ExpandUser: expandBookingUsers(users),
			ExpandTour: expandBookingTours(tours),
		},
		ReadOne:  []string{ExpandUser, ExpandTour},
		ReadMany: []string{ExpandUser, ExpandTour},
	}
}

// --- expanders ---

// гиды: {id, name, email, role, photo}
func expandGuides(users repositories.UserRepository) Expander[models.Tour] {
	return func(ctx context.Context, db *gorm.DB, tours []*models.Tour) error {
		var ids []string
		for _, t := range tours {
			ids = append(ids, t.Guides.IDs()...)
		}
		summaries, err := users.Summaries(db, uniqueIDs(ids))
		if err != nil {
			return err
		}
		for _, t := range tours {
			for i := range t.Guides {
				if s, ok := summaries[t.Guides[i].ID]; ok {
					t.Guides[i].User = s
				}
			}
		}
		return nil
	}
}

// автор отзыва: {id, name, photo}
func expandReviewUsers(users repositories.UserRepository) Expander[models.Review] {
	return func(ctx context.Context, db *gorm.DB, reviews []*models.Review) error {
		ids := make([]string, 0, len(reviews))
		for _, r := range reviews {
			ids = append(ids, r.User.ID)
		}
		summaries, err := users.Summaries(db, uniqueIDs(ids))
		if err != nil {
			return err
		}
		for _, r := range reviews {
			if s, ok := summaries[r.User.ID]; ok {
				r.User.User = &models.UserSummary{ID: s.ID, Name: s.Name, Photo: s.Photo}
			}
		}
		return nil
	}
}

// покупатель: {id, name, email, photo}
func expandBookingUsers(users repositories.UserRepository) Expander[models.Booking] {
	return func(ctx context.Context, db *gorm.DB, bookings []*models.Booking) error {
		ids := make([]string, 0, len(bookings))
		for _, b := range bookings {
			ids = append(ids, b.User.ID)
		}
		summaries, err := users.Summaries(db, uniqueIDs(ids))
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if s, ok := summaries[b.User.ID]; ok {
				b.User.User = &models.UserSummary{ID: s.ID, Name: s.Name, Email: s.Email, Photo: s.Photo}
			}
		}
		return nil
	}
}

// тур бронирования: {id, name}
func expandBookingTours(tours repositories.TourRepository) Expander[models.Booking] {
	return func(ctx context.Context, db *gorm.DB, bookings []*models.Booking) error {
		ids := make([]string, 0, len(bookings))
		for _, b := range bookings {
			ids = append(ids, b.Tour.ID)
		}
		summaries, err := tours.Summaries(db, uniqueIDs(ids))
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if s, ok := summaries[b.Tour.ID]; ok {
				b.Tour.Tour = &models.TourSummary{ID: s.ID, Name: s.Name}
			}
		}
		return nil
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
