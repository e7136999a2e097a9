package geo

import (
	"strconv"
	"strings"

	"natours_backend/pkg/apperrors"

	"github.com/umahmood/haversine"
)

type Unit string

const (
	Miles      Unit = "mi"
	Kilometers Unit = "km"
)

// Радиусы Земли для перевода расстояния в радианы
const (
	EarthRadiusMi = 3963.2
	EarthRadiusKm = 6378.1

	earthRadiusM = EarthRadiusKm * 1000

	// библиотека считает км по радиусу 6371, из него восстанавливаем угол
	haversineRadiusKm = 6371.0
)

// Множители перевода метров в единицы ответа
const (
	MetersToMiles = 0.000621371
	MetersToKm    = 0.001
)

type Point struct {
	Lat float64
	Lng float64
}

func ParseUnit(raw string) (Unit, error) {
	switch Unit(raw) {
	case Miles, Kilometers:
		return Unit(raw), nil
	}
	return "", apperrors.ErrInvalidDistanceUnit
}

func (u Unit) EarthRadius() float64 {
	if u == Miles {
		return EarthRadiusMi
	}
	return EarthRadiusKm
}

func (u Unit) Multiplier() float64 {
	if u == Miles {
		return MetersToMiles
	}
	return MetersToKm
}

// ParseLatLng разбирает "lat,lng"
func ParseLatLng(raw string) (Point, error) {
	latRaw, lngRaw, ok := strings.Cut(raw, ",")
	if !ok {
		return Point{}, apperrors.ErrInvalidLatLng
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return Point{}, apperrors.ErrInvalidLatLng
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return Point{}, apperrors.ErrInvalidLatLng
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Point{}, apperrors.ErrInvalidLatLng
	}
	return Point{Lat: lat, Lng: lng}, nil
}

// CentralAngle - угол между точками в радианах
func CentralAngle(a, b Point) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lng},
		haversine.Coord{Lat: b.Lat, Lon: b.Lng},
	)
	return km / haversineRadiusKm
}

// Within - точка внутри сферической шапки радиуса distance (в unit)
func Within(center, p Point, distance float64, unit Unit) bool {
	return CentralAngle(center, p) <= distance/unit.EarthRadius()
}

// DistanceMeters - расстояние по сфере в метрах
func DistanceMeters(a, b Point) float64 {
	return CentralAngle(a, b) * earthRadiusM
}

// Distance - расстояние в единицах ответа
func Distance(a, b Point, unit Unit) float64 {
	return DistanceMeters(a, b) * unit.Multiplier()
}
