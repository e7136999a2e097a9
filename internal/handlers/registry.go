package handlers

import (
	"natours_backend/internal/services"
	"natours_backend/internal/storage"
	"natours_backend/internal/validator"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler    *AuthHandler
	UserHandler    *UserHandler
	TourHandler    *TourHandler
	ReviewHandler  *ReviewHandler
	BookingHandler *BookingHandler
	ViewHandler    *ViewHandler
	HealthHandler  *HealthHandler
	FileHandler    *FileHandler
}

func NewAppHandlers(sc *services.ServiceContainer, v *validator.Validator, store storage.Storage, cookie CookieConfig) *AppHandlers {
	base := NewBaseHandler(v)

	return &AppHandlers{
		AuthHandler:    NewAuthHandler(base, sc.AuthService, cookie),
		UserHandler:    NewUserHandler(base, sc.Users, sc.UserService, sc.UploadService),
		TourHandler:    NewTourHandler(base, sc.Tours, sc.TourService, sc.UploadService),
		ReviewHandler:  NewReviewHandler(base, sc.Reviews),
		BookingHandler: NewBookingHandler(base, sc.Bookings, sc.BookingService),
		ViewHandler:    NewViewHandler(base, sc.TourService, sc.BookingService),
		HealthHandler:  NewHealthHandler(base),
		FileHandler:    NewFileHandler(base, store),
	}
}
