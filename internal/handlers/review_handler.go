package handlers

import (
	"natours_backend/internal/auth"
	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReviewHandler struct {
	*BaseHandler
	reviews *ResourceHandler[models.Review]
}

func NewReviewHandler(base *BaseHandler, reviews services.ResourceService[models.Review]) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler: base,
		reviews:     NewResourceHandler(base, reviews),
	}
}

// RegisterRoutes: /reviews и вложенные /tours/:id/reviews.
// Во вложенных маршрутах :id - это id тура.
func (h *ReviewHandler) RegisterRoutes(api *gin.RouterGroup, guard *middleware.Guard) {
	reviews := api.Group("/reviews", guard.Protect())
	{
		reviews.GET("", h.reviews.GetAll)
		reviews.POST("", middleware.RequireRoles(auth.RolesReviewers...), h.reviews.CreateWith(h.refs))
		reviews.GET("/:id", h.reviews.GetOne)
		reviews.PATCH("/:id", middleware.RequireRoles(auth.RolesReviewEditor...), h.reviews.Update)
		reviews.DELETE("/:id", middleware.RequireRoles(auth.RolesReviewEditor...), h.reviews.Delete)
	}

	nested := api.Group("/tours/:id/reviews", guard.Protect())
	{
		nested.GET("", h.reviews.GetAllWith(byTour))
		nested.POST("", middleware.RequireRoles(auth.RolesReviewers...), h.reviews.CreateWith(h.refs))
	}
}

// refs - автор из сессии, тур из вложенного маршрута
func (h *ReviewHandler) refs(c *gin.Context) ([]services.Mutator[models.Review], error) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return nil, apperrors.ErrNotLoggedIn
	}
	return []services.Mutator[models.Review]{services.ReviewRefs(c.Param("id"), user.ID)}, nil
}

func byTour(c *gin.Context) repositories.Scope {
	tourID := c.Param("id")
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tour_id = ?", tourID)
	}
}
