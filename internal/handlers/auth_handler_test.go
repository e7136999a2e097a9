package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeAuthService struct {
	result *dto.AuthResult
	err    error
	login  *dto.LoginRequest
}

func (f *fakeAuthService) Signup(ctx context.Context, db *gorm.DB, req *dto.SignupRequest) (*dto.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResult, error) {
	f.login = req
	return f.result, f.err
}

func (f *fakeAuthService) Authenticate(ctx context.Context, db *gorm.DB, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result.User, nil
}

func (f *fakeAuthService) ForgotPassword(ctx context.Context, db *gorm.DB, req *dto.ForgotPasswordRequest) error {
	return f.err
}

func (f *fakeAuthService) ResetPassword(ctx context.Context, db *gorm.DB, token string, req *dto.ResetPasswordRequest) (*dto.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeAuthService) UpdatePassword(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdatePasswordRequest) (*dto.AuthResult, error) {
	return f.result, f.err
}

func authResult() *dto.AuthResult {
	user := models.NewUser()
	user.ID = testUserID
	user.Name = "Laura Wilson"
	user.Email = "laura@example.com"
	user.PasswordHash = "secret-hash"
	return &dto.AuthResult{Token: "jwt-token", ExpiresAt: time.Now().Add(time.Hour), User: user}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_LoginSetsCookie(t *testing.T) {
	svc := &fakeAuthService{result: authResult()}
	h := NewAuthHandler(newBase(), svc, CookieConfig{TTL: 90 * 24 * time.Hour, Secure: true})
	r := newTestRouter(t)
	r.POST("/login", h.Login)

	w := doRequest(r, http.MethodPost, "/login", `{"email":"laura@example.com","password":"test1234"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "jwt-token", resp["token"])
	user := resp["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "laura@example.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, w.Body.String(), "secret-hash")

	cookie := findCookie(w.Result().Cookies(), middleware.JWTCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, "jwt-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, 90*24*3600, cookie.MaxAge)
	assert.Equal(t, "test1234", svc.login.Password)
}

func TestAuthHandler_SignupCreated(t *testing.T) {
	h := NewAuthHandler(newBase(), &fakeAuthService{result: authResult()}, CookieConfig{TTL: time.Hour})
	r := newTestRouter(t)
	r.POST("/signup", h.Signup)

	w := doRequest(r, http.MethodPost, "/signup",
		`{"name":"Laura Wilson","email":"laura@example.com","password":"test1234","passwordConfirm":"test1234"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAuthHandler_SignupValidation(t *testing.T) {
	h := NewAuthHandler(newBase(), &fakeAuthService{result: authResult()}, CookieConfig{TTL: time.Hour})
	r := newTestRouter(t)
	r.POST("/signup", h.Signup)

	w := doRequest(r, http.MethodPost, "/signup",
		`{"name":"Laura","email":"laura@example.com","password":"test1234","passwordConfirm":"other123"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "fail", decode(t, w)["status"])
}

func TestAuthHandler_LoginInvalid(t *testing.T) {
	h := NewAuthHandler(newBase(), &fakeAuthService{err: apperrors.ErrInvalidCredentials}, CookieConfig{TTL: time.Hour})
	r := newTestRouter(t)
	r.POST("/login", h.Login)

	w := doRequest(r, http.MethodPost, "/login", `{"email":"laura@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, findCookie(w.Result().Cookies(), middleware.JWTCookie))
}

func TestAuthHandler_Logout(t *testing.T) {
	h := NewAuthHandler(newBase(), &fakeAuthService{}, CookieConfig{TTL: time.Hour})
	r := newTestRouter(t)
	r.GET("/logout", h.Logout)

	w := doRequest(r, http.MethodGet, "/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())

	cookie := findCookie(w.Result().Cookies(), middleware.JWTCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, "loggedout", cookie.Value)
	assert.Equal(t, 10, cookie.MaxAge)
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	h := NewAuthHandler(newBase(), &fakeAuthService{}, CookieConfig{TTL: time.Hour})
	r := newTestRouter(t)
	r.POST("/forgot-password", h.ForgotPassword)

	w := doRequest(r, http.MethodPost, "/forgot-password", `{"email":"laura@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","message":"Token sent to email!"}`, w.Body.String())
}
