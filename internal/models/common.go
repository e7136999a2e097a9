package models

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// BaseModel - id генерирует Postgres, клиент его не задает
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Base - доступ к общим полям из generic-кода (фабрика ресурсов)
func (m *BaseModel) Base() *BaseModel {
	return m
}

// RoundRating - одна цифра после запятой (4.666 -> 4.7)
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// Slugify: "The Forest Hiker" -> "the-forest-hiker"
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
