package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/pkg/apperrors"
	"natours_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/api/v1/tours", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := func() *httptest.ResponseRecorder {
		return serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
	}

	w := req()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, req().Code)

	w = req()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	resp := errorBody(t, w)
	assert.Equal(t, "fail", resp.Status)
	assert.Equal(t, "Too many requests from this IP, please try again in an hour!", resp.Error.Message)
}

func TestRateLimiter_PerIPAndRefill(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = rl.Allow("10.0.0.1")
	assert.False(t, ok)
	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok, "other IP has its own bucket")

	now = now.Add(2 * time.Hour)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok, "bucket refills over the window")
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(30 * time.Second)
	rl.Allow("10.0.0.2")
	now = now.Add(45 * time.Second)

	rl.cleanup()
	_, stale := rl.limiters["10.0.0.1"]
	_, fresh := rl.limiters["10.0.0.2"]
	assert.False(t, stale)
	assert.True(t, fresh)
}

func TestParameterPollution(t *testing.T) {
	var got map[string][]string
	r := gin.New()
	r.Use(ParameterPollution("duration", "price"))
	r.GET("/tours", func(c *gin.Context) {
		got = c.Request.URL.Query()
	})

	serve(r, httptest.NewRequest(http.MethodGet,
		"/tours?sort=price&sort=duration&duration=5&duration=9&price[gte]=100&price[gte]=200&limit=3", nil))

	assert.Equal(t, []string{"duration"}, got["sort"])
	assert.Equal(t, []string{"5", "9"}, got["duration"])
	assert.Equal(t, []string{"100", "200"}, got["price[gte]"])
	assert.Equal(t, []string{"3"}, got["limit"])
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	r := gin.New()
	r.Use(BodyLimit(10))
	r.POST("/", func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"a very long tour name"}`))
	req.Header.Set("Content-Type", "application/json")
	serve(r, req)
	var maxErr *http.MaxBytesError
	require.True(t, errors.As(readErr, &maxErr))
	assert.Equal(t, int64(10), maxErr.Limit)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("--x\r\n0123456789abcdef\r\n--x--"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	serve(r, req)
	assert.NoError(t, readErr)
}

func TestCompression(t *testing.T) {
	r := gin.New()
	r.Use(Compression("/img"))
	r.GET("/api/v1/tours", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})
	r.DELETE("/api/v1/tours/1", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/img/tours/a.jpg", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/jpeg", []byte("jpeg"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	w := serve(r, req)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success"}`, string(plain))

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/tours/1", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Zero(t, w.Body.Len())

	req = httptest.NewRequest(http.MethodGet, "/img/tours/a.jpg", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "jpeg", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "https://js.stripe.com")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = serve(r, req)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRequestIDMiddleware(t *testing.T) {
	var fromCtx string
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		fromCtx = logger.GetRequestID(c.Request.Context())
	})

	id := "7d6f3c36-4e52-4b0e-9b1e-1f7b0c6f9a21"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, id)
	w := serve(r, req)
	assert.Equal(t, id, w.Header().Get(requestIDHeader))
	assert.Equal(t, id, fromCtx)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	w = serve(r, req)
	generated := w.Header().Get(requestIDHeader)
	assert.NotEqual(t, "not-a-uuid", generated)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, fromCtx)
}

type fakeAuthenticator struct {
	user   *models.User
	err    error
	tokens []string
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, db *gorm.DB, token string) (*models.User, error) {
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func guardRouter(t *testing.T, handlers ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(DBMiddleware(testDB(t)))
	r.GET("/", append(handlers, func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.ID+"|"+GetUserID(c))
	})...)
	return r
}

func TestGuard_ProtectBearer(t *testing.T) {
	a := &fakeAuthenticator{user: &models.User{BaseModel: models.BaseModel{ID: "u1"}, Role: models.UserRoleUser}}
	r := guardRouter(t, NewGuard(a).Protect())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: JWTCookie, Value: "cookie-token"})
	w := serve(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1|u1", w.Body.String())
	assert.Equal(t, []string{"header-token"}, a.tokens)
}

func TestGuard_ProtectCookie(t *testing.T) {
	a := &fakeAuthenticator{user: &models.User{BaseModel: models.BaseModel{ID: "u1"}}}
	r := guardRouter(t, NewGuard(a).Protect())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: JWTCookie, Value: "cookie-token"})
	w := serve(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"cookie-token"}, a.tokens)
}

func TestGuard_ProtectRejects(t *testing.T) {
	a := &fakeAuthenticator{err: apperrors.ErrInvalidToken}
	r := guardRouter(t, NewGuard(a).Protect())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	resp := errorBody(t, w)
	assert.Equal(t, "fail", resp.Status)
	assert.Equal(t, "Invalid token. Please log in again", resp.Error.Message)
	assert.Equal(t, []string{""}, a.tokens)
}

func TestGuard_ProtectWithoutDB(t *testing.T) {
	apperrors.SetDebug(false)
	r := gin.New()
	r.GET("/", NewGuard(&fakeAuthenticator{}).Protect(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", errorBody(t, w).Status)
}

func TestGuard_SoftAuth(t *testing.T) {
	t.Run("no cookie", func(t *testing.T) {
		a := &fakeAuthenticator{}
		w := serve(guardRouter(t, NewGuard(a).SoftAuth()), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "anonymous", w.Body.String())
		assert.Empty(t, a.tokens)
	})

	t.Run("valid cookie", func(t *testing.T) {
		a := &fakeAuthenticator{user: &models.User{BaseModel: models.BaseModel{ID: "u2"}}}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: JWTCookie, Value: "tok"})
		w := serve(guardRouter(t, NewGuard(a).SoftAuth()), req)
		assert.Equal(t, "u2|u2", w.Body.String())
	})

	t.Run("logged out cookie", func(t *testing.T) {
		a := &fakeAuthenticator{err: apperrors.ErrInvalidToken}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: JWTCookie, Value: "loggedout"})
		w := serve(guardRouter(t, NewGuard(a).SoftAuth()), req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
	})
}

func TestRequireRoles(t *testing.T) {
	guide := &models.User{BaseModel: models.BaseModel{ID: "g1"}, Role: models.UserRoleGuide}
	admin := &models.User{BaseModel: models.BaseModel{ID: "a1"}, Role: models.UserRoleAdmin}
	restrict := RequireRoles(models.UserRoleAdmin, models.UserRoleLeadGuide)

	w := serve(guardRouter(t, NewGuard(&fakeAuthenticator{user: guide}).Protect(), restrict), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You do not have a permission to proceed with current action", errorBody(t, w).Error.Message)

	w = serve(guardRouter(t, NewGuard(&fakeAuthenticator{user: admin}).Protect(), restrict), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(guardRouter(t, restrict), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDBMiddleware_PrefersRequestTransaction(t *testing.T) {
	pool := testDB(t)
	tx := testDB(t)

	var got *gorm.DB
	r := gin.New()
	r.Use(DBMiddleware(pool))
	r.GET("/", func(c *gin.Context) {
		got, _ = dbFrom(c)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Same(t, pool, got)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), contextkeys.DBContextKey, tx))
	serve(r, req)
	assert.Same(t, tx, got)
}
