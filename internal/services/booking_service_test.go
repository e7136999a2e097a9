package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"natours_backend/internal/models"
	"natours_backend/internal/payment"
	"natours_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	bookings *fakeBookingRepo
	tours    *fakeTourRepo
	users    *fakeUserRepo
	gateway  *fakeGateway
	svc      BookingService
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		bookings: newFakeBookingRepo(),
		tours:    newFakeTourRepo(),
		users:    newFakeUserRepo(),
		gateway:  &fakeGateway{},
	}
	f.svc = NewBookingService(f.bookings, f.tours, f.users, f.gateway, "https://natours.example/")
	return f
}

func TestBookingService_CheckoutSession(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	tour := f.tours.add(newTestTour("The Forest Hiker", 397, models.DifficultyEasy))
	user := f.users.add(newTestUser("Jonas", "jonas@example.com", models.UserRoleUser))

	sess, err := f.svc.CheckoutSession(ctx, nil, tour.ID, user)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)

	spec := f.gateway.spec
	assert.Equal(t, tour.ID, spec.TourID)
	assert.Equal(t, 397.0, spec.Price)
	assert.Equal(t, "jonas@example.com", spec.CustomerEmail)
	assert.Equal(t, "https://natours.example/my-tours?alert=booking", spec.SuccessURL)
	assert.Equal(t, "https://natours.example/tour/the-forest-hiker", spec.CancelURL)
	assert.Equal(t, "https://natours.example/img/tours/tour-cover.jpg", spec.ImageURL)

	_, err = f.svc.CheckoutSession(ctx, nil, uuid.NewString(), user)
	requireAppError(t, err, http.StatusNotFound)

	_, err = f.svc.CheckoutSession(ctx, nil, "bad-id", user)
	requireAppError(t, err, http.StatusBadRequest)

	f.gateway.err = apperrors.ErrPaymentProvider
	_, err = f.svc.CheckoutSession(ctx, nil, tour.ID, user)
	assert.True(t, errors.Is(err, apperrors.ErrPaymentProvider))
}

func TestBookingService_WebhookCreatesBookingOnce(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	tour := f.tours.add(newTestTour("The Forest Hiker", 397, models.DifficultyEasy))
	user := f.users.add(newTestUser("Jonas", "jonas@example.com", models.UserRoleUser))

	f.gateway.event = &payment.CheckoutCompleted{
		SessionID:     "cs_test_1",
		TourID:        tour.ID,
		CustomerEmail: "Jonas@Example.com",
		Price:         397,
	}

	require.NoError(t, f.svc.HandleWebhook(ctx, nil, []byte("{}"), "sig"))
	require.NoError(t, f.svc.HandleWebhook(ctx, nil, []byte("{}"), "sig"))

	all := f.bookings.all()
	require.Len(t, all, 1)
	assert.Equal(t, tour.ID, all[0].Tour.ID)
	assert.Equal(t, user.ID, all[0].User.ID)
	assert.Equal(t, 397.0, all[0].Price)
	assert.True(t, all[0].Paid)

	mine, err := f.svc.MyTours(ctx, nil, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "The Forest Hiker", mine[0].Name)

	none, err := f.svc.MyTours(ctx, nil, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBookingService_WebhookIgnoredEvents(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	// событие другого типа
	require.NoError(t, f.svc.HandleWebhook(ctx, nil, nil, "sig"))

	// покупатель не найден: событие подтверждается, бронирования нет
	f.gateway.event = &payment.CheckoutCompleted{SessionID: "cs_2", TourID: uuid.NewString(), CustomerEmail: "ghost@example.com", Price: 10}
	require.NoError(t, f.svc.HandleWebhook(ctx, nil, nil, "sig"))
	assert.Empty(t, f.bookings.all())

	f.gateway.err = apperrors.ErrWebhookSignature
	err := f.svc.HandleWebhook(ctx, nil, nil, "bad")
	assert.True(t, errors.Is(err, apperrors.ErrWebhookSignature))
}
