package validator

import (
	"fmt"
	"log"
	"reflect"

	"natours_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

const (
	tagUserRole   = "is-user-role"
	tagDifficulty = "is-difficulty"
	tagBelowPrice = "below-price"
	tagGeoPoint   = "geo-point"
)

// registerCustomRules регистрирует доменные правила. Ошибка регистрации -
// ошибка конфигурации, приложение не должно стартовать.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister(tagUserRole, validateUserRole)
	mustRegister(tagDifficulty, validateDifficulty)

	// Ссылки валидируются по id: `validate:"required,uuid"`
	v.RegisterCustomTypeFunc(refID, models.UserRef{}, models.TourRef{})

	v.RegisterStructValidation(tourStructRules, models.Tour{})
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустое значение - забота 'required'
	}
	return models.UserRole(value).Valid()
}

func validateDifficulty(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.Difficulty(value).Valid()
}

func refID(field reflect.Value) interface{} {
	switch ref := field.Interface().(type) {
	case models.UserRef:
		return ref.ID
	case models.TourRef:
		return ref.ID
	}
	return nil
}

// tourStructRules - перекрестные правила тура, проверяются на итоговой
// (смерженной) записи и при создании, и при обновлении.
func tourStructRules(sl validator.StructLevel) {
	tour := sl.Current().Interface().(models.Tour)

	if tour.PriceDiscount != nil && *tour.PriceDiscount >= tour.Price {
		sl.ReportError(*tour.PriceDiscount, "priceDiscount", "PriceDiscount", tagBelowPrice, "")
	}

	start := tour.StartLocation.Data()
	if start.Type != "" || len(start.Coordinates) > 0 {
		if !start.Valid() {
			sl.ReportError(start.Coordinates, "startLocation", "StartLocation", tagGeoPoint, "")
		}
	}

	for i, loc := range tour.Locations {
		if !loc.Valid() {
			name := fmt.Sprintf("locations[%d]", i)
			sl.ReportError(loc.Coordinates, name, name, tagGeoPoint, "")
		}
	}
}
