package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV  string
		Name string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	GRPC struct {
		Host string
		Port string
	}

	Auth struct {
		JWTSecret      string
		SessionTTL     time.Duration
		LinkTTL        time.Duration
		DefaultOrigin  string
		AllowedOrigins []string
		LinkRateLimit  int
		LinkRateWindow time.Duration
	}

	Mail struct {
		SMTPAddr string
		Username string
		Password string
		From     string
	}

	S3 struct {
		Region    string
		Bucket    string
		AccessKey string
		SecretKey string
		Endpoint  string
		URLExpiry time.Duration
	}

	Payment struct {
		KeyID       string
		KeySecret   string
		AmountPaise int64
		Currency    string
		// Gateway is "razorpay" for server-side order creation with the
		// hosted checkout, or "local" to mint order ids in process.
		Gateway string
	}

	Bot struct {
		ReplyDelay time.Duration
		SeedFile   string
	}
}

// New reads the configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")
	cfg.App.Name = getEnvDefault("APP_NAME", "Elite Matchmaking")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "api")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "elite")

		switch cfg.DB.Driver {
		case "postgres":
			cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
			cfg.DB.DSN = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
				cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
			)
		case "sqlite":
			cfg.DB.DSN = getEnvDefault("DB_PATH", "elite.db")
		default:
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// gRPC (health + reflection only)
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Auth
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.SessionTTL = getEnvDuration("SESSION_TTL", 7*24*time.Hour)
	cfg.Auth.LinkTTL = getEnvDuration("MAGIC_LINK_TTL", 15*time.Minute)
	cfg.Auth.DefaultOrigin = getEnvDefault("APP_ORIGIN", "http://localhost:5173")
	cfg.Auth.AllowedOrigins = splitList(getEnvDefault("ALLOWED_ORIGINS", cfg.Auth.DefaultOrigin))
	cfg.Auth.LinkRateLimit = getEnvInt("MAGIC_LINK_RATE_LIMIT", 5)
	cfg.Auth.LinkRateWindow = getEnvDuration("MAGIC_LINK_RATE_WINDOW", 15*time.Minute)

	// Mail; empty SMTP_ADDR means links are only logged
	cfg.Mail.SMTPAddr = os.Getenv("SMTP_ADDR")
	cfg.Mail.Username = os.Getenv("SMTP_USER")
	cfg.Mail.Password = os.Getenv("SMTP_PASSWORD")
	cfg.Mail.From = getEnvDefault("MAIL_FROM", "no-reply@elite-matchmaking.local")

	// S3
	cfg.S3.Region = getEnvDefault("S3_REGION", "us-east-1")
	cfg.S3.Bucket = getEnvDefault("S3_BUCKET", "elite-media")
	cfg.S3.AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.S3.SecretKey = os.Getenv("S3_SECRET_KEY")
	cfg.S3.Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3.URLExpiry = getEnvDuration("S3_URL_EXPIRY", 5*time.Minute)

	// Payment
	cfg.Payment.KeyID = getEnvDefault("PAYMENT_KEY_ID", "rzp_test_placeholder")
	cfg.Payment.KeySecret = os.Getenv("PAYMENT_KEY_SECRET")
	cfg.Payment.AmountPaise = int64(getEnvInt("PREMIUM_AMOUNT_PAISE", 200))
	cfg.Payment.Currency = getEnvDefault("PREMIUM_CURRENCY", "INR")
	cfg.Payment.Gateway = strings.ToLower(getEnvDefault("PAYMENT_GATEWAY", "local"))

	// Scripted accounts
	cfg.Bot.ReplyDelay = getEnvDuration("BOT_REPLY_DELAY", 3*time.Second)
	cfg.Bot.SeedFile = os.Getenv("BOT_SEED_FILE")

	return cfg
}

// Validate reports configuration that makes the service unable to start.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		if c.App.ENV != "development" {
			errs = append(errs, errors.New("JWT_SECRET is required"))
		} else {
			c.Auth.JWTSecret = "dev-secret-change-me"
		}
	}
	if c.Payment.KeySecret == "" {
		if c.App.ENV != "development" {
			errs = append(errs, errors.New("PAYMENT_KEY_SECRET is required"))
		} else {
			c.Payment.KeySecret = "dev-payment-secret"
		}
	}
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver))
	}
	switch c.Payment.Gateway {
	case "", "local", "razorpay":
	default:
		errs = append(errs, fmt.Errorf("unsupported PAYMENT_GATEWAY %q", c.Payment.Gateway))
	}
	return errors.Join(errs...)
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.TrimRight(p, "/"))
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
