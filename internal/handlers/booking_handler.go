package handlers

import (
	"io"
	"net/http"

	"natours_backend/internal/auth"
	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/services"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// stripeSignatureHeader - подпись вебхука Stripe
const stripeSignatureHeader = "Stripe-Signature"

// maxWebhookBody - Stripe рекомендует не больше 64KB
const maxWebhookBody = 65536

type BookingHandler struct {
	*BaseHandler
	bookings       *ResourceHandler[models.Booking]
	bookingService services.BookingService
}

func NewBookingHandler(base *BaseHandler, bookings services.ResourceService[models.Booking], bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{
		BaseHandler:    base,
		bookings:       NewResourceHandler(base, bookings),
		bookingService: bookingService,
	}
}

func (h *BookingHandler) RegisterRoutes(bookings *gin.RouterGroup, guard *middleware.Guard) {
	bookings.Use(guard.Protect())
	bookings.GET("/checkout-session/:tourId", h.GetCheckoutSession)

	managers := bookings.Group("", middleware.RequireRoles(auth.RolesTourManagers...))
	{
		managers.GET("", h.bookings.GetAll)
		managers.POST("", h.bookings.Create)
		managers.GET("/:id", h.bookings.GetOne)
		managers.PATCH("/:id", h.bookings.Update)
		managers.DELETE("/:id", h.bookings.Delete)
	}
}

// GetCheckoutSession godoc
// @Summary      Сессия оплаты тура в Stripe
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        tourId  path  string  true  "id тура"
// @Success      200
// @Failure      404  {object}  apperrors.ErrorResponse
// @Failure      503  {object}  apperrors.ErrorResponse
// @Router       /api/v1/bookings/checkout-session/{tourId} [get]
func (h *BookingHandler) GetCheckoutSession(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		h.HandleServiceError(c, apperrors.ErrNotLoggedIn)
		return
	}

	session, err := h.bookingService.CheckoutSession(c.Request.Context(), h.GetDB(c), c.Param("tourId"), user)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  statusSuccess,
		"session": session,
	})
}

// Webhook godoc
// @Summary      Вебхук Stripe: checkout.session.completed создает бронирование
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header  string  true  "Подпись"
// @Success      200
// @Failure      400  {object}  apperrors.ErrorResponse
// @Router       /webhook-checkout [post]
func (h *BookingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Invalid webhook body"))
		return
	}

	err = h.bookingService.HandleWebhook(c.Request.Context(), h.GetDB(c), payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
