package apperrors

import (
	stderrors "errors"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Коды PostgreSQL, которые считаются операционными
const (
	pgUniqueViolation      = "23505"
	pgNotNullViolation     = "23502"
	pgInvalidTextRepresent = "22P02"
	pgCheckViolation       = "23514"
)

var (
	duplicateDetailRe = regexp.MustCompile(`Key \((.+)\)=\((.+)\) already exists`)
	invalidSyntaxRe   = regexp.MustCompile(`invalid input syntax for type (\w+): "(.*)"`)
)

// FieldErrors реализуется ошибками валидации (internal/validator)
type FieldErrors interface {
	error
	FieldErrors() map[string]string
}

// Translate переводит известные ошибки библиотек в операционные *AppError.
// Неизвестные ошибки возвращаются как есть и затем скрываются обработчиком.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	var fe FieldErrors
	if stderrors.As(err, &fe) {
		return FromFieldErrors(fe.FieldErrors())
	}

	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound(err)
	}

	// jwt: истекший токен отличаем от всех прочих
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired.WithError(err)
	}
	if isJWTError(err) {
		return ErrInvalidToken.WithError(err)
	}

	var maxBytes *http.MaxBytesError
	if stderrors.As(err, &maxBytes) {
		return ErrPayloadTooLarge.WithError(err)
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		if translated := translatePgError(pgErr); translated != nil {
			return translated
		}
	}

	return err
}

// FromFieldErrors склеивает сообщения всех полей в одно, порядок стабилен
func FromFieldErrors(fields map[string]string) *AppError {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fields[k])
	}

	return ValidationError("Invalid input data. "+strings.Join(msgs, ". "), fields)
}

func isJWTError(err error) bool {
	for _, target := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenInvalidClaims,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenRequiredClaimMissing,
	} {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}

func translatePgError(pgErr *pgconn.PgError) *AppError {
	switch pgErr.Code {
	case pgUniqueViolation:
		if m := duplicateDetailRe.FindStringSubmatch(pgErr.Detail); m != nil {
			return DuplicateValue(columnsToFields(m[1]), m[2]).WithError(pgErr)
		}
		return DuplicateValue(columnsToFields(pgErr.ColumnName), "").WithError(pgErr)
	case pgInvalidTextRepresent:
		if m := invalidSyntaxRe.FindStringSubmatch(pgErr.Message); m != nil {
			return InvalidValue(m[1], m[2]).WithError(pgErr)
		}
		return InvalidValue("value", pgErr.Message).WithError(pgErr)
	case pgNotNullViolation:
		field := columnsToFields(pgErr.ColumnName)
		return FromFieldErrors(map[string]string{field: field + " is required"}).WithError(pgErr)
	case pgCheckViolation:
		return ValidationError("Invalid input data. "+pgErr.Message, nil).WithError(pgErr)
	}
	return nil
}

// columnsToFields: "tour_id, user_id" -> "tour, user"
func columnsToFields(columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = ColumnToField(strings.TrimSpace(p))
	}
	return strings.Join(parts, ", ")
}

// ColumnToField переводит имя колонки в JSON-имя поля: ratings_average -> ratingsAverage
func ColumnToField(column string) string {
	column = strings.TrimSuffix(column, "_id")
	segments := strings.Split(column, "_")
	for i := 1; i < len(segments); i++ {
		if segments[i] == "" {
			continue
		}
		segments[i] = strings.ToUpper(segments[i][:1]) + segments[i][1:]
	}
	return strings.Join(segments, "")
}
