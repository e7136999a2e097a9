package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"natours_backend/internal/auth"
	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/services"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Поля multipart с изображениями тура
const (
	imageCoverField = "imageCover"
	imagesField     = "images"
)

// top5 - запрос, который подставляет алиас /top5
var topToursQuery = map[string]string{
	"limit":  "5",
	"sort":   "-ratingsAverage,price",
	"fields": "name,price,ratingsAverage,summary,difficulty",
}

type TourHandler struct {
	*BaseHandler
	tours         *ResourceHandler[models.Tour]
	tourService   services.TourService
	uploadService services.UploadService
}

func NewTourHandler(base *BaseHandler, tours services.ResourceService[models.Tour], tourService services.TourService, uploadService services.UploadService) *TourHandler {
	return &TourHandler{
		BaseHandler:   base,
		tours:         NewResourceHandler(base, tours),
		tourService:   tourService,
		uploadService: uploadService,
	}
}

func (h *TourHandler) RegisterRoutes(tours *gin.RouterGroup, guard *middleware.Guard) {
	tours.GET("/top5", AliasTopTours, h.tours.GetAll)
	tours.GET("/tour-stats", h.GetTourStats)
	tours.GET("/monthly-plan/:year", guard.Protect(), middleware.RequireRoles(auth.RolesStaff...), h.GetMonthlyPlan)
	tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.GetToursWithin)
	tours.GET("/distances/:latlng/unit/:unit", h.GetDistances)

	tours.GET("", h.tours.GetAll)
	tours.GET("/:id", h.tours.GetOne)

	managers := tours.Group("", guard.Protect(), middleware.RequireRoles(auth.RolesTourManagers...))
	{
		managers.POST("", h.tours.Create)
		managers.PATCH("/:id", h.tours.UpdateWith(h.imageMutators))
		managers.DELETE("/:id", h.tours.Delete)
	}
}

// AliasTopTours подменяет строку запроса на пять лучших туров
func AliasTopTours(c *gin.Context) {
	q := c.Request.URL.Query()
	for k, v := range topToursQuery {
		q.Set(k, v)
	}
	c.Request.URL.RawQuery = q.Encode()
	c.Next()
}

// GetTourStats godoc
// @Summary      Статистика по сложности туров
// @Tags         tours
// @Produce      json
// @Success      200
// @Router       /api/v1/tours/tour-stats [get]
func (h *TourHandler) GetTourStats(c *gin.Context) {
	stats, err := h.tourService.Stats(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, "stats", stats)
}

// GetMonthlyPlan godoc
// @Summary      Старты туров по месяцам года
// @Tags         tours
// @Security     BearerAuth
// @Produce      json
// @Param        year  path  int  true  "Год"
// @Success      200
// @Failure      400  {object}  apperrors.ErrorResponse
// @Router       /api/v1/tours/monthly-plan/{year} [get]
func (h *TourHandler) GetMonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.HandleServiceError(c, apperrors.ErrInvalidYear)
		return
	}

	plan, err := h.tourService.MonthlyPlan(c.Request.Context(), h.GetDB(c), year)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, "plan", plan, len(plan))
}

// GetToursWithin godoc
// @Summary      Туры в радиусе от точки
// @Tags         tours
// @Produce      json
// @Param        distance  path  number  true  "Радиус"
// @Param        latlng    path  string  true  "lat,lng"
// @Param        unit      path  string  true  "mi или km"
// @Success      200
// @Failure      400  {object}  apperrors.ErrorResponse
// @Router       /api/v1/tours/tours-within/{distance}/center/{latlng}/unit/{unit} [get]
func (h *TourHandler) GetToursWithin(c *gin.Context) {
	raw := c.Param("distance")
	distance, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.HandleServiceError(c, apperrors.InvalidValue("distance", raw))
		return
	}

	tours, err := h.tourService.Within(c.Request.Context(), h.GetDB(c), distance, c.Param("latlng"), c.Param("unit"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, "data", tours, len(tours))
}

// GetDistances godoc
// @Summary      Расстояние от точки до каждого тура
// @Tags         tours
// @Produce      json
// @Param        latlng  path  string  true  "lat,lng"
// @Param        unit    path  string  true  "mi или km"
// @Success      200
// @Failure      400  {object}  apperrors.ErrorResponse
// @Router       /api/v1/tours/distances/{latlng}/unit/{unit} [get]
func (h *TourHandler) GetDistances(c *gin.Context) {
	distances, err := h.tourService.Distances(c.Request.Context(), h.GetDB(c), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, distances)
}

// imageMutators сохраняет загруженные изображения и подставляет имена файлов в тур
func (h *TourHandler) imageMutators(c *gin.Context) ([]services.Mutator[models.Tour], error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") || c.Request.MultipartForm == nil {
		return nil, nil
	}

	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.InvalidValue("id", id)
	}

	files := c.Request.MultipartForm.File
	if len(files[imageCoverField]) == 0 && len(files[imagesField]) == 0 {
		return nil, nil
	}
	if len(files[imageCoverField]) > 1 {
		return nil, apperrors.ErrTooManyImages
	}
	// файлы пишутся только для существующего тура
	if _, err := h.tours.svc.ReadOne(c.Request.Context(), h.GetDB(c), id); err != nil {
		return nil, err
	}
	var cover *multipart.FileHeader
	if len(files[imageCoverField]) == 1 {
		cover = files[imageCoverField][0]
	}

	saved, err := h.uploadService.TourImages(c.Request.Context(), id, cover, files[imagesField])
	if err != nil {
		return nil, err
	}
	if saved.Empty() {
		return nil, nil
	}

	return []services.Mutator[models.Tour]{func(t *models.Tour) {
		if saved.ImageCover != "" {
			t.ImageCover = saved.ImageCover
		}
		if len(saved.Images) > 0 {
			t.Images = pq.StringArray(saved.Images)
		}
	}}, nil
}
