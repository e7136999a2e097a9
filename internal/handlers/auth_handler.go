package handlers

import (
	"net/http"
	"time"

	"natours_backend/internal/middleware"
	"natours_backend/internal/services"
	"natours_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// CookieConfig - параметры cookie с токеном
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

// logoutCookieTTL - заглушка вместо токена живет 10 секунд
const logoutCookieTTL = 10 * time.Second

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
		cookie:      cookie,
	}
}

// RegisterRoutes регистрирует маршруты аутентификации в группе /users
func (h *AuthHandler) RegisterRoutes(users *gin.RouterGroup, guard *middleware.Guard) {
	users.POST("/signup", h.Signup)
	users.POST("/login", h.Login)
	users.GET("/logout", h.Logout)
	users.POST("/forgot-password", h.ForgotPassword)
	users.PATCH("/reset-password/:token", h.ResetPassword)

	users.PATCH("/update-password", guard.Protect(), h.UpdatePassword)
}

// Signup godoc
// @Summary      Регистрация
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SignupRequest  true  "Данные пользователя"
// @Success      201
// @Failure      400  {object}  apperrors.ErrorResponse
// @Router       /api/v1/users/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.sendToken(c, http.StatusCreated, result)
}

// Login godoc
// @Summary      Вход по email и паролю
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Учетные данные"
// @Success      200
// @Failure      400  {object}  apperrors.ErrorResponse
// @Failure      401  {object}  apperrors.ErrorResponse
// @Router       /api/v1/users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, result)
}

// Logout godoc
// @Summary      Выход: cookie заменяется заглушкой
// @Tags         auth
// @Produce      json
// @Success      200
// @Router       /api/v1/users/logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "loggedout", logoutCookieTTL)
	c.JSON(http.StatusOK, gin.H{"status": statusSuccess})
}

// ForgotPassword godoc
// @Summary      Письмо со ссылкой на сброс пароля
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ForgotPasswordRequest  true  "Email"
// @Success      200
// @Failure      404  {object}  apperrors.ErrorResponse
// @Failure      500  {object}  apperrors.ErrorResponse
// @Router       /api/v1/users/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), h.GetDB(c), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Token sent to email!")
}

// ResetPassword godoc
// @Summary      Новый пароль по токену из письма
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  path  string                     true  "Токен сброса"
// @Param        body   body  dto.ResetPasswordRequest  true  "Новый пароль"
// @Success      200
// @Failure      400  {object}  apperrors.ErrorResponse
// @Router       /api/v1/users/reset-password/{token} [patch]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.authService.ResetPassword(c.Request.Context(), h.GetDB(c), c.Param("token"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, result)
}

// UpdatePassword godoc
// @Summary      Смена пароля с проверкой текущего
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdatePasswordRequest  true  "Текущий и новый пароль"
// @Success      200
// @Failure      401  {object}  apperrors.ErrorResponse
// @Router       /api/v1/users/update-password [patch]
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdatePasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.authService.UpdatePassword(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, result)
}

// sendToken: токен уходит и в теле, и в httpOnly cookie
func (h *AuthHandler) sendToken(c *gin.Context, code int, result *dto.AuthResult) {
	h.setCookie(c, result.Token, h.cookie.TTL)
	c.JSON(code, gin.H{
		"status": statusSuccess,
		"token":  result.Token,
		"data":   gin.H{"user": result.User},
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.JWTCookie, value, int(ttl.Seconds()), "/", "", h.cookie.Secure, true)
}
