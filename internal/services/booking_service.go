package services

import (
	"context"
	"errors"
	"strings"

	"natours_backend/internal/logger"
	"natours_backend/internal/metrics"
	"natours_backend/internal/models"
	"natours_backend/internal/payment"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// BookingService - оплата тура через провайдера и бронирования пользователя
type BookingService interface {
	CheckoutSession(ctx context.Context, db *gorm.DB, tourID string, user *models.User) (*dto.CheckoutSessionResponse, error)
	// HandleWebhook создает бронирование по подтвержденной оплате.
	// Повторная доставка того же события ничего не меняет.
	HandleWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) error
	MyTours(ctx context.Context, db *gorm.DB, userID string) ([]models.Tour, error)
}

type bookingService struct {
	bookings repositories.BookingRepository
	tours    repositories.TourRepository
	users    repositories.UserRepository
	gateway  payment.Gateway
	baseURL  string
}

func NewBookingService(
	bookings repositories.BookingRepository,
	tours repositories.TourRepository,
	users repositories.UserRepository,
	gateway payment.Gateway,
	baseURL string,
) BookingService {
	return &bookingService{
		bookings: bookings,
		tours:    tours,
		users:    users,
		gateway:  gateway,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *bookingService) CheckoutSession(ctx context.Context, db *gorm.DB, tourID string, user *models.User) (*dto.CheckoutSessionResponse, error) {
	if err := checkID(tourID); err != nil {
		return nil, err
	}

	tour, err := s.tours.FindByID(db, tourID, repositories.PublicTours)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutSpec{
		TourID:        tour.ID,
		TourName:      tour.Name,
		TourSummary:   tour.Summary,
		ImageURL:      s.baseURL + "/img/tours/" + tour.ImageCover,
		Price:         tour.Price,
		CustomerEmail: user.Email,
		SuccessURL:    s.baseURL + "/my-tours?alert=booking",
		CancelURL:     s.baseURL + "/tour/" + tour.Slug,
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "Checkout session created", "tour_id", tour.ID, "session_id", session.ID)
	return &dto.CheckoutSessionResponse{ID: session.ID, URL: session.URL}, nil
}

func (s *bookingService) HandleWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if event == nil {
		return nil
	}

	return s.bookings.Transaction(db, func(tx *gorm.DB) error {
		if _, err := s.bookings.FindBySession(tx, event.SessionID); err == nil {
			logger.CtxInfo(ctx, "Checkout already booked", "session_id", event.SessionID)
			return nil
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return apperrors.InternalError(err)
		}

		user, err := s.users.FindByEmail(tx, strings.ToLower(strings.TrimSpace(event.CustomerEmail)))
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				// провайдер не должен повторять событие, которое нельзя обработать
				logger.CtxWarn(ctx, "Checkout for unknown customer", "session_id", event.SessionID)
				return nil
			}
			return apperrors.InternalError(err)
		}

		booking := models.NewBooking()
		booking.Tour = models.NewTourRef(event.TourID)
		booking.User = models.NewUserRef(user.ID)
		booking.Price = event.Price
		sessionID := event.SessionID
		booking.StripeSessionID = &sessionID

		if err := s.bookings.Create(tx, booking); err != nil {
			return apperrors.Translate(err)
		}

		metrics.BookingsCreated.Inc()
		logger.CtxInfo(ctx, "Booking created from checkout",
			"booking_id", booking.ID,
			"tour_id", event.TourID,
			"user_id", user.ID,
		)
		return nil
	})
}

// MyTours - туры, забронированные пользователем
func (s *bookingService) MyTours(ctx context.Context, db *gorm.DB, userID string) ([]models.Tour, error) {
	bookings, err := s.bookings.FindByUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.Tour.ID)
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []models.Tour{}, nil
	}

	tours, err := s.tours.FindByIDs(db, ids)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return tours, nil
}
