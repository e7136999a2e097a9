package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"natours_backend/internal/logger"
	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/services"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// Имена шаблонов в web/templates
const (
	tmplOverview = "overview.html"
	tmplTour     = "tour.html"
	tmplLogin    = "login.html"
	tmplAccount  = "account.html"
	tmplError    = "error.html"
)

const bookingAlert = "Your booking was successful! Please check your email for a confirmation. " +
	"If your booking doesn't show up here immediately, please come back later."

// TemplateFuncs - функции шаблонов страниц, ставятся до LoadHTMLGlob
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"json": func(v interface{}) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
		"monthYear": func(t time.Time) string {
			return t.Format("January 2006")
		},
	}
}

// ViewHandler - серверные страницы. Ошибки отдаются страницей, а не JSON.
type ViewHandler struct {
	*BaseHandler
	tourService    services.TourService
	bookingService services.BookingService
}

func NewViewHandler(base *BaseHandler, tourService services.TourService, bookingService services.BookingService) *ViewHandler {
	return &ViewHandler{
		BaseHandler:    base,
		tourService:    tourService,
		bookingService: bookingService,
	}
}

func (h *ViewHandler) RegisterRoutes(r *gin.RouterGroup, guard *middleware.Guard) {
	views := r.Group("", guard.SoftAuth())
	{
		views.GET("/", h.Overview)
		views.GET("/tour/:slug", h.Tour)
		views.GET("/login", h.Login)
		views.GET("/me", h.Account)
		views.GET("/my-tours", h.MyTours)
	}
}

func (h *ViewHandler) Overview(c *gin.Context) {
	tours, err := h.tourService.Overview(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplOverview, "All Tours", gin.H{"tours": tours})
}

func (h *ViewHandler) Tour(c *gin.Context) {
	tour, err := h.tourService.GetBySlug(c.Request.Context(), h.GetDB(c), c.Param("slug"))
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplTour, tour.Name+" Tour", gin.H{"tour": tour})
}

func (h *ViewHandler) Login(c *gin.Context) {
	h.render(c, http.StatusOK, tmplLogin, "Log into your account", gin.H{})
}

func (h *ViewHandler) Account(c *gin.Context) {
	if _, ok := h.requireUser(c); !ok {
		return
	}
	h.render(c, http.StatusOK, tmplAccount, "Your account", gin.H{})
}

func (h *ViewHandler) MyTours(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	tours, err := h.bookingService.MyTours(c.Request.Context(), h.GetDB(c), user.ID)
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplOverview, "My Tours", gin.H{"tours": tours})
}

// NotFound - страница для неизвестных адресов вне /api
func (h *ViewHandler) NotFound(c *gin.Context) {
	h.RenderError(c, apperrors.RouteNotFound(c.Request.URL.Path))
}

// RenderError: операционная ошибка показывается как есть, остальные скрываются
func (h *ViewHandler) RenderError(c *gin.Context, err error) {
	handler := &apperrors.GinErrorHandler{Debug: apperrors.DebugEnabled()}
	appErr, operational := handler.Resolve(err)

	msg := appErr.Message
	if !operational || appErr.HTTPCode >= http.StatusInternalServerError {
		logger.CtxWithError(c.Request.Context(), "View error", err, "path", c.Request.URL.Path)
		if !handler.Debug {
			msg = "Please try again later."
		}
	}

	h.render(c, appErr.HTTPCode, tmplError, "Something went wrong!", gin.H{"msg": msg})
	c.Abort()
}

// requireUser - страницы учетной записи только после входа
func (h *ViewHandler) requireUser(c *gin.Context) (*models.User, bool) {
	user, ok := h.CurrentUser(c)
	if !ok {
		h.RenderError(c, apperrors.ErrNotLoggedIn)
		return nil, false
	}
	return user, true
}

func (h *ViewHandler) render(c *gin.Context, code int, name, title string, data gin.H) {
	data["title"] = title
	if user, ok := h.CurrentUser(c); ok {
		data["user"] = user
	}
	if c.Query("alert") == "booking" {
		data["alert"] = bookingAlert
	}
	c.HTML(code, name, data)
}
