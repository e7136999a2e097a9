package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"natours_backend/internal/logger"
	"natours_backend/internal/metrics"
	"natours_backend/pkg/apperrors"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// createSessionFunc - checkout/sessions.New (подменяется в тестах)
type createSessionFunc func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

type StripeGateway struct {
	cfg     StripeConfig
	create  createSessionFunc
	breaker *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
}

// NewGateway - без ключа платежи отключены
func NewGateway(cfg StripeConfig) Gateway {
	if cfg.SecretKey == "" {
		logger.Warn("Stripe secret key is empty, payments are disabled")
		return DisabledGateway{}
	}
	sc := client.New(cfg.SecretKey, nil)
	return newStripeGateway(cfg, sc.CheckoutSessions.New)
}

func newStripeGateway(cfg StripeConfig, create createSessionFunc) *StripeGateway {
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyUSD)
	}
	settings := gobreaker.Settings{
		Name:    "stripe",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// ошибки валидации запроса не говорят о недоступности Stripe
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			stripeErr, ok := err.(*stripe.Error)
			return ok && stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordBreakerTransition(name, from, to)
		},
	}
	return &StripeGateway{
		cfg:     cfg,
		create:  create,
		breaker: gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](settings),
	}
}

// ToCents - сумма в минимальных единицах валюты
func ToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, spec CheckoutSpec) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(spec.SuccessURL),
		CancelURL:          stripe.String(spec.CancelURL),
		CustomerEmail:      stripe.String(spec.CustomerEmail),
		ClientReferenceID:  stripe.String(spec.TourID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.cfg.Currency),
					UnitAmount: stripe.Int64(ToCents(spec.Price)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(spec.TourName + " Tour"),
						Description: stripe.String(spec.TourSummary),
						Images:      stripe.StringSlice([]string{spec.ImageURL}),
					},
				},
			},
		},
	}
	params.Context = ctx

	sess, err := g.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return g.create(params)
	})
	if err != nil {
		logger.CtxWithError(ctx, "Failed to create checkout session", err, "tour_id", spec.TourID)
		return nil, apperrors.ErrPaymentProvider.WithError(err)
	}

	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*CheckoutCompleted, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, apperrors.ErrWebhookSignature.WithError(err)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}
	if event.Data == nil {
		return nil, apperrors.NewBadRequestError("Webhook event has no data")
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, apperrors.NewBadRequestError("Webhook event has invalid session").WithError(err)
	}

	email := sess.CustomerEmail
	if email == "" && sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}
	if sess.ClientReferenceID == "" || email == "" {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("Checkout session %s has no tour or customer", sess.ID))
	}

	return &CheckoutCompleted{
		SessionID:     sess.ID,
		TourID:        sess.ClientReferenceID,
		CustomerEmail: email,
		Price:         float64(sess.AmountTotal) / 100,
	}, nil
}
