package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/query"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services"
	"natours_backend/internal/validator"
	"natours_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testDB - *gorm.DB без соединения: хэндлеры только передают его в сервисы
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(
		postgres.New(postgres.Config{DSN: "host=127.0.0.1 port=1 user=test dbname=test sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true},
	)
	require.NoError(t, err)
	return db
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(middleware.DBMiddleware(testDB(t)))
	return r
}

// withUser имитирует Protect
func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(contextkeys.UserContextKey), user)
		c.Set(string(contextkeys.UserIDContextKey), user.ID)
		c.Next()
	}
}

func newBase() *BaseHandler {
	return NewBaseHandler(validator.New())
}

func doRequest(r http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// fakeResources - ResourceService в памяти: запоминает аргументы последнего вызова
type fakeResources[T any] struct {
	items    []T
	one      *T
	err      error
	fields   []string
	body     []byte
	id       string
	values   url.Values
	scopes   []repositories.Scope
	mutators []services.Mutator[T]
	deleted  string
}

func (f *fakeResources[T]) Create(ctx context.Context, db *gorm.DB, body []byte, mutators ...services.Mutator[T]) (*T, error) {
	f.body, f.mutators = body, mutators
	if f.err != nil {
		return nil, f.err
	}
	item := new(T)
	if len(body) > 0 {
		if err := json.Unmarshal(body, item); err != nil {
			return nil, err
		}
	}
	for _, m := range mutators {
		m(item)
	}
	return item, nil
}

func (f *fakeResources[T]) ReadOne(ctx context.Context, db *gorm.DB, id string) (*T, error) {
	f.id = id
	return f.one, f.err
}

func (f *fakeResources[T]) ReadMany(ctx context.Context, db *gorm.DB, values url.Values, scopes ...repositories.Scope) (*services.ListResult[T], error) {
	f.values, f.scopes = values, scopes
	if f.err != nil {
		return nil, f.err
	}
	return &services.ListResult[T]{Items: f.items, Spec: query.Spec{Fields: f.fields}}, nil
}

func (f *fakeResources[T]) Update(ctx context.Context, db *gorm.DB, id string, body []byte, mutators ...services.Mutator[T]) (*T, error) {
	f.id, f.body, f.mutators = id, body, mutators
	if f.err != nil {
		return nil, f.err
	}
	return f.one, nil
}

func (f *fakeResources[T]) Delete(ctx context.Context, db *gorm.DB, id string) error {
	f.deleted = id
	return f.err
}

func (f *fakeResources[T]) Expand(ctx context.Context, db *gorm.DB, items []*T, names ...string) error {
	return nil
}
