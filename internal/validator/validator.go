package validator

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidationError содержит карту ошибок "поле" -> "сообщение".
type ValidationError struct {
	Errors map[string]string
}

// Error - сообщения отсортированы по имени поля, порядок стабилен
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, e.Errors[field])
	}
	return "Validation failed: " + strings.Join(msgs, ". ")
}

// FieldErrors - для слоя трансляции ошибок (apperrors.Translate)
func (e *ValidationError) FieldErrors() map[string]string {
	return e.Errors
}

// Validator - обертка над go-playground/validator.
type Validator struct {
	validate *validator.Validate
}

// New создает валидатор с json-именами полей и доменными правилами.
func New() *Validator {
	v := validator.New()

	// В ошибках - имена из json-тегов, как их видит клиент
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomRules(v)

	return &Validator{
		validate: v,
	}
}

// Validate проверяет структуру. Ошибки полей возвращаются как *ValidationError.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		// ошибка рефлексии и т.п.
		return err
	}

	customErrors := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		customErrors[fe.Field()] = v.getErrorMessage(fe)
	}

	return &ValidationError{Errors: customErrors}
}

func (v *Validator) getErrorMessage(fe validator.FieldError) string {
	label := humanize(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Must be a valid email"
	case "min":
		if isSized(fe.Kind()) {
			return fmt.Sprintf("%s should have at least %s chars", label, fe.Param())
		}
		return fmt.Sprintf("%s should be at least %s", label, fe.Param())
	case "max":
		if isSized(fe.Kind()) {
			return fmt.Sprintf("%s length can be less or equal %s chars", label, fe.Param())
		}
		return fmt.Sprintf("%s should be %s max", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s should be at least %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s should be %s max", label, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", label)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case tagUserRole:
		return "Unsupported user role"
	case tagDifficulty:
		return "Unsupported difficulty level"
	case tagBelowPrice:
		return fmt.Sprintf("Discount should be below the regular price. Written discount is %v", fe.Value())
	case tagGeoPoint:
		return fmt.Sprintf("%s must be a point with coordinates [lng, lat]", label)
	default:
		return fmt.Sprintf("Invalid %s (failed on '%s' tag)", fe.Field(), fe.Tag())
	}
}

func isSized(k reflect.Kind) bool {
	return k == reflect.String || k == reflect.Slice || k == reflect.Map
}

// humanize: "imageCover" -> "Image cover"
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteByte(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
