//go:build integration

package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"natours_backend/internal/auth"
	"natours_backend/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const DefaultPassword = "test1234"

// CreateUser пишет пользователя напрямую в БД, минуя signup (роль задается любая)
func CreateUser(t *testing.T, ts *TestServer, name string, role models.UserRole) *models.User {
	t.Helper()

	hash, err := auth.HashPasswordWithCost(DefaultPassword, bcrypt.MinCost)
	require.NoError(t, err)

	user := models.NewUser()
	user.Name = name
	user.Email = fmt.Sprintf("%s_%d@example.com", role, time.Now().UnixNano())
	user.Role = role
	user.PasswordHash = hash
	user.Normalize()

	require.NoError(t, ts.DB.Create(user).Error, "Создание тестового пользователя")
	return user
}

// Login входит через API и возвращает токен
func Login(t *testing.T, ts *TestServer, email, password string) string {
	t.Helper()

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "Логин должен быть успешным. Ответ: "+body)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// CreateAndLogin - пользователь с ролью и его токен
func CreateAndLogin(t *testing.T, ts *TestServer, name string, role models.UserRole) (string, *models.User) {
	t.Helper()
	user := CreateUser(t, ts, name, role)
	return Login(t, ts, user.Email, DefaultPassword), user
}
