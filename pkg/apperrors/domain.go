package apperrors

import (
	"net/http"
)

/*
Предопределенные операционные ошибки домена.
Переменные не мутируются: WithDetails/WithError возвращают копию.
*/

// ErrDocumentNotFound - общая 404 для фабрики ресурсов
var ErrDocumentNotFound = New(
	CodeNotFound,
	"resource",
	"No document found with that ID",
	http.StatusNotFound,
)

// ErrNotFound - фабрика для ошибки "не найдено" поверх ошибки репозитория
func ErrNotFound(err error) *AppError {
	return ErrDocumentNotFound.WithError(err)
}

// --- Auth ---

var ErrMissingCredentials = New(
	CodeBadRequest,
	"auth",
	"Please provide email and password",
	http.StatusBadRequest,
)

// ErrInvalidCredentials - не раскрываем, какое поле неверно
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Incorrect email or password",
	http.StatusUnauthorized,
)

var ErrNotLoggedIn = New(
	CodeUnauthorized,
	"auth",
	"You are not logged in! Please log in to get access",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid token. Please log in again",
	http.StatusUnauthorized,
)

var ErrTokenExpired = New(
	CodeTokenExpired,
	"auth",
	"Your token has expired! Please log in again",
	http.StatusUnauthorized,
)

var ErrUserNoLongerExists = New(
	CodeUnauthorized,
	"auth",
	"The user belonging to this token does no longer exist",
	http.StatusUnauthorized,
)

var ErrPasswordChanged = New(
	CodePasswordChanged,
	"auth",
	"User recently changed password! Please log in again",
	http.StatusUnauthorized,
)

var ErrPermissionDenied = New(
	CodeForbidden,
	"auth",
	"You do not have a permission to proceed with current action",
	http.StatusForbidden,
)

var ErrWrongCurrentPassword = New(
	CodeInvalidCredentials,
	"auth",
	"Your current password is wrong",
	http.StatusUnauthorized,
)

// --- Password reset ---

var ErrNoUserWithEmail = New(
	CodeNotFound,
	"auth",
	"There is no user with that email address",
	http.StatusNotFound,
)

// ErrResetTokenInvalid - одинаковая ошибка для "не найден" и "просрочен"
var ErrResetTokenInvalid = New(
	CodeResetTokenInvalid,
	"auth",
	"Token is invalid or has expired",
	http.StatusBadRequest,
)

var ErrEmailDelivery = New(
	CodeExternalServiceError,
	"email",
	"There was an error sending the email. Try again later!",
	http.StatusInternalServerError,
)

// --- Users ---

var ErrPasswordUpdateNotAllowed = New(
	CodeBadRequest,
	"user",
	"This route is not for password updates. Please use /update-password",
	http.StatusBadRequest,
)

// --- Tours ---

var ErrTourNotFound = New(
	CodeNotFound,
	"tour",
	"There is no tour with that name.",
	http.StatusNotFound,
)

var ErrInvalidLatLng = New(
	CodeBadRequest,
	"tour",
	"Please provide latitude and longitude in the format lat,lng",
	http.StatusBadRequest,
)

var ErrInvalidDistanceUnit = New(
	CodeBadRequest,
	"tour",
	"Unit must be either mi or km",
	http.StatusBadRequest,
)

var ErrInvalidYear = New(
	CodeBadRequest,
	"tour",
	"Year must be a number",
	http.StatusBadRequest,
)

// --- Uploads ---

var ErrNotAnImage = New(
	CodeBadRequest,
	"upload",
	"Not an image! Please upload only images.",
	http.StatusBadRequest,
)

var ErrTooManyImages = New(
	CodeBadRequest,
	"upload",
	"Too many images uploaded",
	http.StatusBadRequest,
)

// --- Payments ---

var ErrPaymentProvider = New(
	CodeExternalServiceError,
	"payment",
	"Payment provider is unavailable. Try again later!",
	http.StatusServiceUnavailable,
)

var ErrWebhookSignature = New(
	CodeBadRequest,
	"payment",
	"Webhook signature verification failed",
	http.StatusBadRequest,
)

// --- Transport ---

var ErrTooManyRequests = New(
	CodeRateLimited,
	"request",
	"Too many requests from this IP, please try again in an hour!",
	http.StatusTooManyRequests,
)

var ErrPayloadTooLarge = New(
	CodePayloadTooLarge,
	"request",
	"Request body too large",
	http.StatusRequestEntityTooLarge,
)
