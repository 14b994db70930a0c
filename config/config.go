package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"

	defaultJWTSecret = "change-me-in-production"
)

type Config struct {
	Port            string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	StoreDriver string
	MongoURI    string
	DBName      string

	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string

	MaxUploadMB       int64
	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretKey       string
	S3PublicBaseURL   string
	GoogleBooksURL    string
	ReconcileSchedule string

	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	ModeratorEmail string
}

// Load reads configuration from the environment. Call godotenv first if a
// .env file should be honoured.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DB", "bookshelf")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("TOKEN_TTL", "1h")
	v.SetDefault("MAX_UPLOAD_MB", 5)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("RECONCILE_SCHEDULE", "@hourly")
	v.SetDefault("SMTP_PORT", 587)

	cfg := &Config{
		Port:            v.GetString("PORT"),
		Env:             strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:        v.GetString("LOG_LEVEL"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),

		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		MongoURI:    v.GetString("MONGODB_URI"),
		DBName:      v.GetString("MONGODB_DB"),

		JWTSecret:     v.GetString("JWT_SECRET"),
		TokenTTL:      v.GetDuration("TOKEN_TTL"),
		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),

		MaxUploadMB:       v.GetInt64("MAX_UPLOAD_MB"),
		S3Bucket:          v.GetString("AWS_S3_BUCKET"),
		S3Region:          v.GetString("AWS_REGION"),
		S3AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
		S3SecretKey:       v.GetString("AWS_SECRET_ACCESS_KEY"),
		S3PublicBaseURL:   v.GetString("S3_PUBLIC_BASE_URL"),
		GoogleBooksURL:    v.GetString("GOOGLE_BOOKS_URL"),
		ReconcileSchedule: v.GetString("RECONCILE_SCHEDULE"),

		SMTPHost:       v.GetString("SMTP_HOST"),
		SMTPPort:       v.GetInt("SMTP_PORT"),
		SMTPUsername:   v.GetString("SMTP_USERNAME"),
		SMTPPassword:   v.GetString("SMTP_PASSWORD"),
		SMTPFrom:       v.GetString("SMTP_FROM"),
		ModeratorEmail: v.GetString("MODERATOR_EMAIL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// MaxUploadBytes is the multipart limit for image uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverMemory, c.StoreDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.JWTSecret == defaultJWTSecret && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET must be changed outside development"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
