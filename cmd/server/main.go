package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oggyb/elite-matchmaking/internal/app"
	"github.com/oggyb/elite-matchmaking/internal/auth"
	"github.com/oggyb/elite-matchmaking/internal/cache"
	"github.com/oggyb/elite-matchmaking/internal/config"
	"github.com/oggyb/elite-matchmaking/internal/db"
	"github.com/oggyb/elite-matchmaking/internal/handlers"
	"github.com/oggyb/elite-matchmaking/internal/logger"
	"github.com/oggyb/elite-matchmaking/internal/payment"
	"github.com/oggyb/elite-matchmaking/internal/realtime"
	"github.com/oggyb/elite-matchmaking/internal/repository"
	"github.com/oggyb/elite-matchmaking/internal/server"
	"github.com/oggyb/elite-matchmaking/internal/service/chat"
	"github.com/oggyb/elite-matchmaking/internal/service/explore"
	"github.com/oggyb/elite-matchmaking/internal/service/premium"
	"github.com/oggyb/elite-matchmaking/internal/service/profile"
	"github.com/oggyb/elite-matchmaking/internal/service/session"
	"github.com/oggyb/elite-matchmaking/internal/storage"
)

const (
	linkPurgeInterval = 10 * time.Minute
	healthInterval    = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return err
	}
	defer redisCache.Client.Close()

	scripted, err := db.LoadScriptedProfiles(cfg.Bot.SeedFile)
	if err != nil {
		return err
	}
	if err := db.SeedScriptedProfiles(database, scripted); err != nil {
		return err
	}
	log.Info("scripted profiles ready", "count", len(scripted))

	appCtx := app.New(cfg, database, redisCache, log)

	presigner, err := storage.NewPresigner(ctx, cfg)
	if err != nil {
		return err
	}
	notifier := realtime.NewNotifier(redisCache, log)
	bot := chat.NewBotReplier(repository.NewMessageRepository(database), notifier, log, cfg.Bot.ReplyDelay)
	defer bot.Close()

	mailer, err := auth.NewMailer(cfg, log)
	if err != nil {
		return err
	}
	sessions := session.NewService(appCtx, mailer, notifier)
	router := handlers.NewRouter(cfg, log, handlers.Services{
		Sessions: sessions,
		Profiles: profile.NewService(appCtx, presigner),
		Explore:  explore.NewExploreService(appCtx, notifier),
		Chat:     chat.NewService(appCtx, notifier, presigner, bot),
		Premium:  premium.NewService(appCtx, payment.NewGateway(cfg)),
		Notifier: notifier,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	health := server.NewHealthRegistrar(log, "session", "explore", "chat", "premium")

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.StartGRPCServer(ctx, cfg, log, health); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		health.Watch(ctx, healthInterval, func(ctx context.Context) error {
			if err := redisCache.Ping(ctx); err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		purgeLinks(ctx, sessions)
	}()

	go func() {
		log.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		log.Error("server failed", "err", runErr)
		stop()
	}

	health.Shutdown()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", "err", err)
	}

	wg.Wait()
	log.Info("server exited")
	return runErr
}

// purgeLinks drops used and expired sign-in links until ctx ends.
func purgeLinks(ctx context.Context, sessions *session.Service) {
	ticker := time.NewTicker(linkPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeLinks(ctx)
			if err != nil {
				logger.Warn("link purge failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged sign-in links", "count", n)
			}
		}
	}
}
