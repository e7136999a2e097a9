package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Storage - хранилище загруженных изображений (фото пользователей, туров)
type Storage interface {
	// Save сохраняет файл по ключу вида "users/user-1-1700000000.jpeg"
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Open - содержимое файла; ErrObjectNotFound, если его нет
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// URL - публичный адрес файла
	URL(key string) string
}

var ErrObjectNotFound = errors.New("storage: object not found")

// Config holds storage configuration
type Config struct {
	Type       string // local, s3, cloudflare_r2
	BasePath   string // local
	BaseURL    string // публичный префикс
	Bucket     string // S3/R2
	Region     string // S3
	AccessKey  string // S3/R2
	SecretKey  string // S3/R2
	Endpoint   string // R2 или совместимый S3
	PublicRead bool
}

// NewStorage выбирает реализацию по Type
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "cloudflare_r2":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is required for Cloudflare R2")
		}
		cfg.Region = "auto"
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// cleanKey не дает выйти за пределы хранилища ("../")
func cleanKey(key string) (string, error) {
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
