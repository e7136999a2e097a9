package services

import (
	"natours_backend/internal/auth"
	"natours_backend/internal/email"
	"natours_backend/internal/imageprocessor"
	"natours_backend/internal/models"
	"natours_backend/internal/payment"
	"natours_backend/internal/repositories"
	"natours_backend/internal/storage"
	"natours_backend/internal/validator"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	Tours    ResourceService[models.Tour]
	Users    ResourceService[models.User]
	Reviews  ResourceService[models.Review]
	Bookings ResourceService[models.Booking]

	AuthService    AuthService
	UserService    UserService
	TourService    TourService
	BookingService BookingService
	UploadService  UploadService
	Ratings        *RatingCalculator

	Tokens *auth.TokenManager
}

// Repositories - набор репозиториев, общий для сервисов и воркеров
type Repositories struct {
	Users    repositories.UserRepository
	Tours    repositories.TourRepository
	Reviews  repositories.ReviewRepository
	Bookings repositories.BookingRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Users:    repositories.NewUserRepository(),
		Tours:    repositories.NewTourRepository(),
		Reviews:  repositories.NewReviewRepository(),
		Bookings: repositories.NewBookingRepository(),
	}
}

// Deps - внешние зависимости, которые собирает app
type Deps struct {
	Repos     *Repositories
	Validator *validator.Validator
	Tokens    *auth.TokenManager
	Mailer    email.Mailer
	Gateway   payment.Gateway
	Storage   storage.Storage
	Processor *imageprocessor.Processor
	BaseURL   string
	// 0 - auth.PasswordCost
	PasswordCost int
}

func NewServiceContainer(d Deps) *ServiceContainer {
	r := d.Repos
	ratings := NewRatingCalculator(r.Tours, r.Reviews)

	tours := NewResourceService(TourResource(r.Users, r.Reviews), repositories.ResourceRepository[models.Tour](r.Tours), d.Validator)
	users := NewResourceService(UserResource(), repositories.ResourceRepository[models.User](r.Users), d.Validator)
	reviews := NewResourceService(ReviewResource(r.Users, ratings), repositories.ResourceRepository[models.Review](r.Reviews), d.Validator)
	bookings := NewResourceService(BookingResource(r.Users, r.Tours), repositories.ResourceRepository[models.Booking](r.Bookings), d.Validator)

	return &ServiceContainer{
		Tours:    tours,
		Users:    users,
		Reviews:  reviews,
		Bookings: bookings,

		AuthService: NewAuthService(r.Users, d.Tokens, d.Mailer, d.Validator, AuthConfig{
			BaseURL:      d.BaseURL,
			PasswordCost: d.PasswordCost,
		}),
		UserService:    NewUserService(r.Users, d.Validator),
		TourService:    NewTourService(r.Tours, tours),
		BookingService: NewBookingService(r.Bookings, r.Tours, r.Users, d.Gateway, d.BaseURL),
		UploadService:  NewUploadService(d.Storage, d.Processor),
		Ratings:        ratings,

		Tokens: d.Tokens,
	}
}
