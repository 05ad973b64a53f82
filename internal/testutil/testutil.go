// Package testutil wires in-memory SQLite and miniredis for package tests.
package testutil

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/elite-matchmaking/internal/app"
	"github.com/oggyb/elite-matchmaking/internal/cache"
	"github.com/oggyb/elite-matchmaking/internal/config"
	"github.com/oggyb/elite-matchmaking/internal/db"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// NewRedis starts a miniredis server and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()

	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { rc.Client.Close() })
	return rc, mr
}

// Config returns a development config suitable for tests.
func Config() *config.Config {
	cfg := &config.Config{}
	cfg.App.ENV = "test"
	cfg.App.Name = "Elite Matchmaking"
	cfg.DB.Driver = "sqlite"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.SessionTTL = time.Hour
	cfg.Auth.LinkTTL = 15 * time.Minute
	cfg.Auth.DefaultOrigin = "http://localhost:5173"
	cfg.Auth.AllowedOrigins = []string{"http://localhost:5173", "https://elite.example"}
	cfg.Auth.LinkRateLimit = 5
	cfg.Auth.LinkRateWindow = 15 * time.Minute
	cfg.S3.Region = "us-east-1"
	cfg.S3.Bucket = "elite-test"
	cfg.S3.AccessKey = "AKIATEST"
	cfg.S3.SecretKey = "secret"
	cfg.S3.URLExpiry = 5 * time.Minute
	cfg.Payment.KeyID = "rzp_test_key"
	cfg.Payment.KeySecret = "rzp_test_secret"
	cfg.Payment.AmountPaise = 200
	cfg.Payment.Currency = "INR"
	cfg.Bot.ReplyDelay = 10 * time.Millisecond
	return cfg
}

// NewAppContext wires a fresh database, miniredis and a discarding logger.
func NewAppContext(t *testing.T) *app.AppContext {
	t.Helper()

	database := NewDB(t)
	rc, _ := NewRedis(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.New(Config(), database, rc, log)
}

// SignPayment produces the signature the hosted checkout attaches to a
// successful payment: hex(HMAC-SHA256(secret, order_id|payment_id)).
func SignPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
