package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// contentSecurityPolicy - страницы грузят Stripe.js и карту Mapbox
const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' https://js.stripe.com https://api.mapbox.com; " +
	"frame-src https://js.stripe.com; " +
	"style-src 'self' https://api.mapbox.com https://fonts.googleapis.com 'unsafe-inline'; " +
	"font-src 'self' https://fonts.gstatic.com; " +
	"img-src 'self' data: blob:; " +
	"connect-src 'self' https://api.mapbox.com https://events.mapbox.com; " +
	"worker-src 'self' blob:; " +
	"object-src 'none'; " +
	"base-uri 'self'; " +
	"frame-ancestors 'self'; " +
	"form-action 'self'"

// SecurityHeaders - заголовки безопасности для всех ответов
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")

		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		}
		c.Next()
	}
}

// CORS - пустой список источников разрешает всех
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// BodyLimit ограничивает JSON-тело. Multipart (загрузка изображений) не ограничивается.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && !strings.HasPrefix(c.ContentType(), "multipart/") {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// ParameterPollution оставляет последнее значение повторенного параметра.
// Поля из whitelist могут повторяться (?duration=5&duration=9).
// Для "price[gte]" проверяется имя поля "price".
func ParameterPollution(whitelist ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(whitelist))
	for _, f := range whitelist {
		allowed[f] = true
	}

	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		changed := false
		for key, vals := range q {
			if len(vals) < 2 {
				continue
			}
			field := key
			if i := strings.IndexByte(key, '['); i > 0 {
				field = key[:i]
			}
			if allowed[field] {
				continue
			}
			q[key] = vals[len(vals)-1:]
			changed = true
		}
		if changed {
			c.Request.URL.RawQuery = q.Encode()
		}
		c.Next()
	}
}
