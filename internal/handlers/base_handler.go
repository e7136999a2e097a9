package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"natours_backend/internal/logger"
	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/validator"
	"natours_backend/pkg/apperrors"
	"natours_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{
		validator: v,
	}
}

// GetDB извлекает *gorm.DB (пул или транзакцию) из gin.Context
// Этот метод ДОЛЖЕН вызываться в каждом хендлере, который обращается к сервисам
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	dbKey := string(contextkeys.DBContextKey)

	val, ok := c.Get(dbKey)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db key not found in context", "key", dbKey)
		panic("critical error: DBMiddleware did not set the db key")
	}

	db, ok := val.(*gorm.DB)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db in context is not *gorm.DB", "key", dbKey, "type", fmt.Sprintf("%T", val))
		panic("critical error: db in context has incorrect type")
	}

	return db.WithContext(c.Request.Context())
}

// ============================================================================
// 2. Привязка и валидация
// ============================================================================

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	// пустое тело - не ошибка разбора, обязательные поля проверит валидатор
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			apperrors.HandleError(c, apperrors.ErrPayloadTooLarge)
			return false
		}
		logger.CtxWithError(ctx, "Failed to bind JSON body", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return false
	}

	if err := h.validator.Validate(obj); err != nil {
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.FromFieldErrors(vErr.Errors))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// ReadBody - тело запроса для фабрики ресурсов. Для multipart текстовые
// поля формы собираются в JSON-объект.
func (h *BaseHandler) ReadBody(c *gin.Context) ([]byte, bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			h.HandleServiceError(c, apperrors.Translate(err))
			return nil, false
		}
		body, err := formToJSON(form.Value)
		if err != nil {
			h.HandleServiceError(c, err)
			return nil, false
		}
		return body, true
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.HandleServiceError(c, apperrors.Translate(err))
		return nil, false
	}
	return body, true
}

// formToJSON: значение, которое само является JSON (число, bool, массив,
// объект), передается как есть, остальное - строкой. Повтор ключа - последнее.
func formToJSON(values map[string][]string) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	doc := make(map[string]json.RawMessage, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := strings.TrimSpace(vals[len(vals)-1])
		if v != "" && json.Valid([]byte(v)) && !strings.HasPrefix(v, `"`) {
			doc[key] = json.RawMessage(v)
			continue
		}
		quoted, err := json.Marshal(vals[len(vals)-1])
		if err != nil {
			return nil, err
		}
		doc[key] = quoted
	}
	return json.Marshal(doc)
}

// ============================================================================
// 3. Обработчики ошибок
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"error", appErr.Message,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
		return
	}
	// неизвестные ошибки скрывает HandleError
	apperrors.HandleError(c, err)
}

// ============================================================================
// 4. Текущий пользователь
// ============================================================================

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	user, ok := h.CurrentUser(c)
	if !ok {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: user not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.ErrNotLoggedIn)
		return "", false
	}
	return user.ID, true
}

// CurrentUser - пользователь, которого положил Protect (или SoftAuth)
func (h *BaseHandler) CurrentUser(c *gin.Context) (*models.User, bool) {
	return middleware.CurrentUser(c)
}
