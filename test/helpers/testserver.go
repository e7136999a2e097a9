//go:build integration

package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"natours_backend/database"
	"natours_backend/internal/app"
	"natours_backend/internal/config"
	"natours_backend/internal/seed"

	"gorm.io/gorm"
)

// TestServer - приложение на httptest поверх тестовой БД
type TestServer struct {
	Server *httptest.Server
	App    *app.Server
	DB     *gorm.DB
	Config *config.Config

	uploadDir string
}

// NewTestServer собирает конфиг для тестов, мигрирует схему и поднимает роутер.
// Пути к шаблонам и статике считаются от пакета test/integration.
func NewTestServer(ctx context.Context, dsn string) (*TestServer, error) {
	uploadDir, err := os.MkdirTemp("", "natours-img-*")
	if err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	os.Setenv("SERVER_ENV", "test")
	os.Setenv("DATABASE_URL", dsn)
	os.Setenv("JWT_SECRET", "integration-secret-key-with-32-chars!")
	os.Setenv("STORAGE_BASE_PATH", uploadDir)

	cfg, err := config.Load("testdata/config.yaml")
	if err != nil {
		return nil, err
	}
	cfg.Server.TemplatesDir = "../../web/templates"
	cfg.Server.StaticDir = "../../public"

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	srv, err := app.SetupRouter(cfg, db)
	if err != nil {
		return nil, err
	}

	return &TestServer{
		Server:    httptest.NewServer(srv.Engine),
		App:       srv,
		DB:        db,
		Config:    cfg,
		uploadDir: uploadDir,
	}, nil
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	if sqlDB, err := ts.DB.DB(); err == nil {
		sqlDB.Close()
	}
	os.RemoveAll(ts.uploadDir)
}

// ClearTables очищает все таблицы перед тестом
func (ts *TestServer) ClearTables(t *testing.T) {
	t.Helper()
	if err := seed.Delete(ts.DB); err != nil {
		t.Fatalf("Не удалось очистить таблицы: %v", err)
	}
}

// SendRequest - JSON запрос; token уходит в Authorization: Bearer
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Ошибка кодирования JSON для запроса: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки HTTP-запроса: %v", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}
	return res, string(resBody)
}
