package payment

import (
	"context"

	"natours_backend/pkg/apperrors"
)

// CheckoutSpec - одна позиция: тур по текущей цене
type CheckoutSpec struct {
	TourID        string
	TourName      string
	TourSummary   string
	ImageURL      string
	Price         float64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type Session struct {
	ID  string
	URL string
}

// CheckoutCompleted - подтвержденная оплата из вебхука
type CheckoutCompleted struct {
	SessionID     string
	TourID        string
	CustomerEmail string
	Price         float64
}

// Gateway - платежный провайдер
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, spec CheckoutSpec) (*Session, error)
	// ParseWebhook проверяет подпись. Для событий кроме завершенной оплаты - nil, nil.
	ParseWebhook(payload []byte, signature string) (*CheckoutCompleted, error)
}

// DisabledGateway - ключ Stripe не настроен
type DisabledGateway struct{}

func (DisabledGateway) CreateCheckoutSession(ctx context.Context, spec CheckoutSpec) (*Session, error) {
	return nil, apperrors.ErrPaymentProvider
}

func (DisabledGateway) ParseWebhook(payload []byte, signature string) (*CheckoutCompleted, error) {
	return nil, apperrors.ErrPaymentProvider
}
