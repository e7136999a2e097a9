package apperrors

import (
	stderrors "errors"
	"sync/atomic"

	"natours_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - стандартный ответ об ошибке.
// Stack заполняется только в диагностическом режиме.
type ErrorResponse struct {
	Status string    `json:"status"`
	Error  *AppError `json:"error"`
	Stack  []string  `json:"stack,omitempty"`
}

// GinErrorHandler - обработчик ошибок для Gin
type GinErrorHandler struct {
	Debug bool
}

var debugMode atomic.Bool

// SetDebug включает диагностический режим (только не-production)
func SetDebug(enabled bool) {
	debugMode.Store(enabled)
}

// DebugEnabled - текущий режим
func DebugEnabled() bool {
	return debugMode.Load()
}

// Resolve приводит любую ошибку к ответу: операционные отдаются как есть,
// неожиданные скрываются за общим сообщением.
func (h *GinErrorHandler) Resolve(err error) (*AppError, bool) {
	appErr, ok := AsAppError(Translate(err))
	if ok {
		return appErr, true
	}

	appErr = InternalError(err)
	if h.Debug {
		appErr.Message = err.Error()
	}
	return appErr, false
}

// HandleGinError - основная логика обработки ошибок для Gin
func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, operational := h.Resolve(err)

	if !operational || appErr.HTTPCode >= 500 {
		logger.CtxWithError(c.Request.Context(), "Server error", err, "path", c.Request.URL.Path)
	}

	resp := ErrorResponse{Status: appErr.Status(), Error: appErr}
	if h.Debug {
		resp.Stack = Chain(err)
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, resp)
}

// HandleError - быстрая функция-помощник для Gin
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: DebugEnabled()}
	handler.HandleGinError(c, err)
}

// Chain разворачивает цепочку ошибок для диагностики
func Chain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = stderrors.Unwrap(err)
	}
	return chain
}
