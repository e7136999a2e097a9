package dto

// CheckoutSessionResponse - сессия оплаты Stripe
type CheckoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
