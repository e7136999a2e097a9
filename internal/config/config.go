package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		Env             string        `yaml:"env"`      // development, production, test
		BaseURL         string        `yaml:"base_url"` // публичный адрес для ссылок в письмах и Stripe
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		TemplatesDir    string        `yaml:"templates_dir"` // html views
		StaticDir       string        `yaml:"static_dir"`    // css, js, картинки страниц
	} `yaml:"server"`

	Database struct {
		DSN             string        `yaml:"url"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		AutoMigrate     bool          `yaml:"auto_migrate"`
	} `yaml:"database"`

	JWT struct {
		Secret            string        `yaml:"secret"`
		ExpiresIn         time.Duration `yaml:"expires_in"`
		CookieExpiresDays int           `yaml:"cookie_expires_days"`
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		UseTLS       bool   `yaml:"use_tls"`
	} `yaml:"email"`

	Storage struct {
		Type       string `yaml:"type"`        // local, s3, cloudflare_r2
		BasePath   string `yaml:"base_path"`   // для local
		BaseURL    string `yaml:"base_url"`    // публичный префикс
		Bucket     string `yaml:"bucket"`      // S3/R2
		Region     string `yaml:"region"`      // S3
		AccessKey  string `yaml:"access_key"`  // S3/R2
		SecretKey  string `yaml:"secret_key"`  // S3/R2
		Endpoint   string `yaml:"endpoint"`    // R2 или совместимый S3
		PublicRead bool   `yaml:"public_read"` // ACL public-read
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64 `yaml:"max_size"`
		ImageQuality int   `yaml:"image_quality"`
	} `yaml:"upload"`

	Stripe struct {
		SecretKey     string `yaml:"secret_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		Currency      string `yaml:"currency"`
	} `yaml:"stripe"`

	Security struct {
		RateLimit   int           `yaml:"rate_limit"`  // запросов за окно
		RateWindow  time.Duration `yaml:"rate_window"` // окно
		BodyLimit   int64         `yaml:"body_limit"`  // байт на JSON тело
		CORSOrigins []string      `yaml:"cors_origins"`
	} `yaml:"security"`

	Workers struct {
		ResetTokenSweepInterval time.Duration `yaml:"reset_token_sweep_interval"`
	} `yaml:"workers"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// IsProduction - production включает secure cookie и скрывает детали ошибок
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment - диагностический режим ошибок
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Address - host:port для http.Server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoadConfig читает .env, config.yaml и переменные окружения в AppConfig
func LoadConfig() {
	// .env не обязателен: в контейнере переменные приходят снаружи
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Не удалось прочитать .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Load собирает конфигурацию: yaml (если файл есть) -> env -> значения по умолчанию
func Load(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Printf("Конфиг %s не найден, используются переменные окружения", path)
	default:
		return nil, fmt.Errorf("failed to open config file at %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Server.Env, "SERVER_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Server.BaseURL, "BASE_URL")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setDuration(&cfg.JWT.ExpiresIn, "JWT_EXPIRES_IN")
	setInt(&cfg.JWT.CookieExpiresDays, "JWT_COOKIE_EXPIRES_IN")
	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.SMTPUsername, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Email.FromEmail, "EMAIL_FROM")
	setString(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.BasePath, "STORAGE_BASE_PATH")
	setString(&cfg.FirstAdminEmail, "FIRST_ADMIN_EMAIL")
	setString(&cfg.FirstAdminPassword, "FIRST_ADMIN_PASSWORD")

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.Security.CORSOrigins = strings.Split(origins, ",")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.TemplatesDir == "" {
		cfg.Server.TemplatesDir = "web/templates"
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "public"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.JWT.ExpiresIn == 0 {
		cfg.JWT.ExpiresIn = 90 * 24 * time.Hour
	}
	if cfg.JWT.CookieExpiresDays == 0 {
		cfg.JWT.CookieExpiresDays = 90
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "Natours"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./public/img"
	}
	if cfg.Storage.BaseURL == "" {
		cfg.Storage.BaseURL = "/img"
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 10 * 1024 * 1024
	}
	if cfg.Upload.ImageQuality == 0 {
		cfg.Upload.ImageQuality = 90
	}
	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "usd"
	}
	if cfg.Security.RateLimit == 0 {
		cfg.Security.RateLimit = 100
	}
	if cfg.Security.RateWindow == 0 {
		cfg.Security.RateWindow = time.Hour
	}
	if cfg.Security.BodyLimit == 0 {
		cfg.Security.BodyLimit = 10 * 1024
	}
	if cfg.Workers.ResetTokenSweepInterval == 0 {
		cfg.Workers.ResetTokenSweepInterval = time.Hour
	}
}

// Validate - без БД и секрета JWT сервер не стартует
func (c *Config) Validate() error {
	var problems []string
	if c.Database.DSN == "" {
		problems = append(problems, "database url is required (database.url or DATABASE_URL)")
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt secret is required (jwt.secret or JWT_SECRET)")
	}
	if c.IsProduction() && len(c.JWT.Secret) < 32 {
		problems = append(problems, "jwt secret must be at least 32 characters in production")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// setDuration принимает "90d" помимо формата time.ParseDuration
func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := ParseDuration(v); err == nil {
		*dst = d
	}
}

// ParseDuration: time.ParseDuration + суффикс дней "d"
func ParseDuration(v string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}
