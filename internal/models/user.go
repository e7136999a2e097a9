package models

import (
	"strings"
	"time"
)

const DefaultUserPhoto = "default.jpg"

type User struct {
	BaseModel
	Name  string   `gorm:"not null" json:"name" validate:"required,max=80"`
	Email string   `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	Photo string   `gorm:"not null;default:default.jpg" json:"photo"`
	Role  UserRole `gorm:"type:varchar(20);not null;default:user" json:"role" validate:"required,is-user-role"`

	// Скрытые поля: никогда не сериализуются
	Active               bool       `gorm:"not null;default:true;index" json:"-"`
	PasswordHash         string     `gorm:"not null" json:"-"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   *string    `gorm:"index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
}

// NewUser - пользователь с дефолтами схемы
func NewUser() *User {
	return &User{
		Photo:  DefaultUserPhoto,
		Role:   UserRoleUser,
		Active: true,
	}
}

// Normalize - email в нижнем регистре, без пробелов
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Photo == "" {
		u.Photo = DefaultUserPhoto
	}
}

// PasswordChangePrecision совпадает с точностью iat в токенах
const PasswordChangePrecision = time.Millisecond

// ChangedPasswordAfter - пароль сменили после выдачи токена.
// Токен, выданный в ту же миллисекунду, что и смена, считается выданным после.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(PasswordChangePrecision).After(issuedAt)
}

func (u *User) MarkPasswordChanged(now time.Time) {
	changed := now.Truncate(PasswordChangePrecision)
	u.PasswordChangedAt = &changed
}

// ClearPasswordReset - токен сброса одноразовый
func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}

func (u *User) FirstName() string {
	if first, _, ok := strings.Cut(u.Name, " "); ok {
		return first
	}
	return u.Name
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Photo: u.Photo}
}

// UserSummary - раскрытая ссылка на пользователя (гиды тура, автор отзыва)
type UserSummary struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email,omitempty"`
	Role  UserRole `json:"role,omitempty"`
	Photo string   `json:"photo"`
}

func (UserSummary) TableName() string {
	return "users"
}
