package handlers

import (
	"context"
	"net/http"
	"testing"

	"natours_backend/internal/models"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeBookingService struct {
	session   *dto.CheckoutSessionResponse
	myTours   []models.Tour
	err       error
	tourID    string
	payload   []byte
	signature string
}

func (f *fakeBookingService) CheckoutSession(ctx context.Context, db *gorm.DB, tourID string, user *models.User) (*dto.CheckoutSessionResponse, error) {
	f.tourID = tourID
	return f.session, f.err
}

func (f *fakeBookingService) HandleWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) error {
	f.payload, f.signature = payload, signature
	return f.err
}

func (f *fakeBookingService) MyTours(ctx context.Context, db *gorm.DB, userID string) ([]models.Tour, error) {
	return f.myTours, f.err
}

func TestBookingHandler_CheckoutSession(t *testing.T) {
	svc := &fakeBookingService{session: &dto.CheckoutSessionResponse{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}}
	h := NewBookingHandler(newBase(), &fakeResources[models.Booking]{}, svc)
	r := newTestRouter(t)
	r.Use(withUser(&models.User{BaseModel: models.BaseModel{ID: testUserID}}))
	r.GET("/checkout-session/:tourId", h.GetCheckoutSession)

	w := doRequest(r, http.MethodGet, "/checkout-session/"+testTourID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","session":{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1"}}`, w.Body.String())
	assert.Equal(t, testTourID, svc.tourID)
}

func TestBookingHandler_Webhook(t *testing.T) {
	svc := &fakeBookingService{}
	h := NewBookingHandler(newBase(), &fakeResources[models.Booking]{}, svc)
	r := newTestRouter(t)
	r.POST("/webhook-checkout", h.Webhook)

	payload := `{"type":"checkout.session.completed"}`
	w := doRequest(r, http.MethodPost, "/webhook-checkout", payload, "Stripe-Signature", "t=1,v1=abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, payload, string(svc.payload))
	assert.Equal(t, "t=1,v1=abc", svc.signature)
}

func TestBookingHandler_WebhookBadSignature(t *testing.T) {
	svc := &fakeBookingService{err: apperrors.ErrWebhookSignature}
	h := NewBookingHandler(newBase(), &fakeResources[models.Booking]{}, svc)
	r := newTestRouter(t)
	r.POST("/webhook-checkout", h.Webhook)

	w := doRequest(r, http.MethodPost, "/webhook-checkout", `{}`, "Stripe-Signature", "bad")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrWebhookSignature.Message, decode(t, w)["error"].(map[string]interface{})["message"])
}
