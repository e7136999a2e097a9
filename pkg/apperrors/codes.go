package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

const (
	// Системные и неизвестные ошибки
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Ошибки ресурсов и входных данных
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeRouteNotFound    ErrorCode = "ROUTE_NOT_FOUND"
	CodeDuplicateValue   ErrorCode = "DUPLICATE_VALUE"
	CodeInvalidValue     ErrorCode = "INVALID_VALUE"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodePayloadTooLarge  ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"

	// Аутентификация и авторизация
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	CodePasswordChanged    ErrorCode = "PASSWORD_CHANGED"
	CodeResetTokenInvalid  ErrorCode = "RESET_TOKEN_INVALID"
)
