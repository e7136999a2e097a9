package middleware

import (
	"context"
	"errors"
	"strings"

	"natours_backend/internal/auth"
	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/pkg/apperrors"
	"natours_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// JWTCookie - имя cookie с токеном сессии
const JWTCookie = "jwt"

var errNoDB = errors.New("db is not set in context")

// Authenticator проверяет токен и возвращает актуального пользователя
type Authenticator interface {
	Authenticate(ctx context.Context, db *gorm.DB, token string) (*models.User, error)
}

// Guard - middleware доступа поверх сервиса аутентификации
type Guard struct {
	auth Authenticator
}

func NewGuard(a Authenticator) *Guard {
	return &Guard{auth: a}
}

// Protect - токен из заголовка Authorization: Bearer или из cookie jwt.
// Без валидного токена запрос дальше не идет.
func (g *Guard) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		db, ok := dbFrom(c)
		if !ok {
			apperrors.HandleError(c, apperrors.InternalError(errNoDB))
			return
		}

		user, err := g.auth.Authenticate(c.Request.Context(), db, tokenFromRequest(c))
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// SoftAuth - для страниц: пользователь из cookie, если он есть.
// Любая ошибка означает анонимный запрос.
func (g *Guard) SoftAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(JWTCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}
		db, ok := dbFrom(c)
		if !ok {
			c.Next()
			return
		}

		if user, err := g.auth.Authenticate(c.Request.Context(), db, token); err == nil {
			setUser(c, user)
		}
		c.Next()
	}
}

// RequireRoles пропускает только перечисленные роли. Ставится после Protect.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			apperrors.HandleError(c, apperrors.ErrNotLoggedIn)
			return
		}

		if !auth.HasRole(user.Role, roles...) {
			logger.CtxWarn(c.Request.Context(), "Access denied: insufficient role",
				"role", user.Role,
				"path", c.Request.URL.Path,
			)
			apperrors.HandleError(c, apperrors.ErrPermissionDenied)
			return
		}

		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, ok := c.Get(string(contextkeys.UserContextKey))
	if !ok {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok && user != nil
}

// GetUserID - id из контекста; пустая строка, если Protect не отработал
func GetUserID(c *gin.Context) string {
	return c.GetString(string(contextkeys.UserIDContextKey))
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(string(contextkeys.UserContextKey), user)
	c.Set(string(contextkeys.UserIDContextKey), user.ID)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), user.ID))
}

func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if token, err := c.Cookie(JWTCookie); err == nil {
		return token
	}
	return ""
}

func dbFrom(c *gin.Context) (*gorm.DB, bool) {
	val, ok := c.Get(string(contextkeys.DBContextKey))
	if !ok {
		return nil, false
	}
	db, ok := val.(*gorm.DB)
	return db, ok && db != nil
}
