package routes

import (
	"strings"

	"natours_backend/internal/handlers"
	"natours_backend/internal/logger"
	"natours_backend/internal/middleware"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const apiPrefix = "/api/v1"

// pollutionWhitelist - поля, которые можно повторять в query (?duration=5&duration=9)
var pollutionWhitelist = []string{
	"duration",
	"ratingsQuantity",
	"ratingsAverage",
	"maxGroupSize",
	"difficulty",
	"price",
}

// Options - настройки защиты /api
type Options struct {
	RateLimiter *middleware.RateLimiter
	BodyLimit   int64
	// StaticDir раздается под /static; пусто - не раздается
	StaticDir string
	// Swagger UI отдается только вне production
	EnableSwagger bool
}

// RegisterRoutes регистрирует API, страницы и служебные маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	guard *middleware.Guard,
	opts Options,
) {
	apiMiddleware := make([]gin.HandlerFunc, 0, 3)
	if opts.RateLimiter != nil {
		apiMiddleware = append(apiMiddleware, opts.RateLimiter.Middleware())
	}
	if opts.BodyLimit > 0 {
		apiMiddleware = append(apiMiddleware, middleware.BodyLimit(opts.BodyLimit))
	}
	apiMiddleware = append(apiMiddleware, middleware.ParameterPollution(pollutionWhitelist...))

	api := ginRouter.Group(apiPrefix, apiMiddleware...)
	{
		appHandlers.TourHandler.RegisterRoutes(api.Group("/tours"), guard)

		users := api.Group("/users")
		appHandlers.AuthHandler.RegisterRoutes(users, guard)
		appHandlers.UserHandler.RegisterRoutes(users, guard)

		appHandlers.ReviewHandler.RegisterRoutes(api, guard)
		appHandlers.BookingHandler.RegisterRoutes(api.Group("/bookings"), guard)
	}

	// Stripe подписывает сырое тело, поэтому вебхук вне /api и без лимита тела
	ginRouter.POST("/webhook-checkout", appHandlers.BookingHandler.Webhook)

	root := ginRouter.Group("")
	appHandlers.ViewHandler.RegisterRoutes(root, guard)
	appHandlers.FileHandler.RegisterRoutes(root)
	if opts.StaticDir != "" {
		ginRouter.Static("/static", opts.StaticDir)
	}

	ginRouter.GET("/health", appHandlers.HealthHandler.Health)
	ginRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.EnableSwagger {
		ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ginRouter.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			apperrors.HandleError(c, apperrors.RouteNotFound(c.Request.URL.RequestURI()))
			return
		}
		appHandlers.ViewHandler.NotFound(c)
	})

	logger.Info("Routes registered", "api_prefix", apiPrefix, "swagger", opts.EnableSwagger)
}
