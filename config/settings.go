package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// PlaceholderSecret is the development JWT secret shipped in app.json.
// It is refused when APP_ENV is production.
const PlaceholderSecret = "change-me"

// Settings is the typed view over the merged configuration. It is built once
// at startup and passed down explicitly.
type Settings struct {
	App      AppSettings
	Database DatabaseSettings
	Redis    RedisSettings
	Auth     AuthSettings
	Orders   OrderSettings
	Mail     MailSettings
	Storage  StorageSettings
	HTTP     HTTPSettings
	Queue    QueueSettings
	Admin    AdminSettings
}

type AppSettings struct {
	Name     string `env:"APP_NAME" envDefault:"Retro Music"`
	Env      string `env:"APP_ENV" envDefault:"local"`
	URL      string `env:"APP_URL" envDefault:"http://localhost:8080"`
	Port     string `env:"APP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL"`
}

type DatabaseSettings struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DSN             string        `env:"DATABASE_DSN" envDefault:"retromusic.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"2m"`
}

type RedisSettings struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	Enabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	CacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
}

// AuthSettings carries the secret and the lockout policy.
type AuthSettings struct {
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"2h"`
	MaxAttempts     int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"3"`
	LockoutDuration time.Duration `env:"LOGIN_LOCKOUT" envDefault:"5m"`
	RevealAttempts  bool          `env:"LOGIN_REVEAL_ATTEMPTS" envDefault:"true"`
	ResetCodeTTL    time.Duration `env:"RESET_CODE_TTL" envDefault:"10m"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`
}

type OrderSettings struct {
	TaxRate decimal.Decimal `env:"TAX_RATE" envDefault:"0.16"`
	Timeout time.Duration   `env:"ORDER_TIMEOUT" envDefault:"5s"`
}

// MailSettings selects the mail transport. Driver "log" writes messages to
// the log instead of sending them.
type MailSettings struct {
	Driver   string `env:"MAIL_DRIVER" envDefault:"log"`
	Host     string `env:"MAIL_HOST" envDefault:"localhost"`
	Port     int    `env:"MAIL_PORT" envDefault:"587"`
	Username string `env:"MAIL_USERNAME"`
	Password string `env:"MAIL_PASSWORD"`
	From     string `env:"MAIL_FROM" envDefault:"no-reply@retromusic.local"`
	FromName string `env:"MAIL_FROM_NAME" envDefault:"Retro Music"`
	TLS      bool   `env:"MAIL_TLS" envDefault:"false"`
}

type StorageSettings struct {
	Disk       string `env:"STORAGE_DISK" envDefault:"local"`
	LocalRoot  string `env:"STORAGE_LOCAL_ROOT" envDefault:"storage/app/public"`
	LocalURL   string `env:"STORAGE_LOCAL_URL" envDefault:"/storage"`
	S3Bucket   string `env:"S3_BUCKET"`
	S3Region   string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Key      string `env:"S3_KEY"`
	S3Secret   string `env:"S3_SECRET"`
	S3URL      string `env:"S3_URL"`
	S3Endpoint string `env:"S3_ENDPOINT"`
	MaxUpload  int64  `env:"STORAGE_MAX_UPLOAD" envDefault:"5242880"`
}

type HTTPSettings struct {
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RateLimit       int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"200"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	MaxBodyBytes    int64         `env:"HTTP_MAX_BODY" envDefault:"1048576"`
}

type QueueSettings struct {
	Driver  string `env:"QUEUE_DRIVER" envDefault:"memory"`
	Workers int    `env:"QUEUE_WORKERS" envDefault:"2"`
	Name    string `env:"QUEUE_NAME" envDefault:"default"`
}

// AdminSettings seeds the first administrator account.
type AdminSettings struct {
	Name     string `env:"ADMIN_NAME" envDefault:"Administrador"`
	Email    string `env:"ADMIN_EMAIL" envDefault:"admin@retromusic.local"`
	Password string `env:"ADMIN_PASSWORD"`
}

// IsProduction reports whether APP_ENV names a production environment.
func (s AppSettings) IsProduction() bool {
	switch strings.ToLower(s.Env) {
	case "production", "prod":
		return true
	}
	return false
}

// Addr returns the listen address for the HTTP server.
func (s AppSettings) Addr() string {
	return ":" + strings.TrimPrefix(s.Port, ":")
}

// LoadSettings parses the merged configuration into Settings and validates it.
func LoadSettings() (*Settings, error) {
	if err := Load(); err != nil {
		return nil, err
	}
	return ParseSettings(Snapshot())
}

// ParseSettings parses Settings from an explicit key/value map. Missing keys
// fall back to their envDefault tags.
func ParseSettings(environ map[string]string) (*Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects configurations the service must not start with.
func (s *Settings) Validate() error {
	var errs []error

	secret := strings.TrimSpace(s.Auth.JWTSecret)
	switch {
	case secret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case secret == PlaceholderSecret && s.App.IsProduction():
		errs = append(errs, errors.New("JWT_SECRET must be changed in production"))
	}

	if s.Auth.MaxAttempts < 1 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be at least 1"))
	}
	if s.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if s.Orders.TaxRate.IsNegative() {
		errs = append(errs, errors.New("TAX_RATE must not be negative"))
	}
	if s.Orders.Timeout <= 0 {
		errs = append(errs, errors.New("ORDER_TIMEOUT must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid settings: %w", errors.Join(errs...))
	}
	return nil
}
