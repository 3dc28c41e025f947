package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"crowdpulse-api/internal/agent"
	"crowdpulse-api/internal/auth"
	"crowdpulse-api/internal/cache"
	"crowdpulse-api/internal/config"
	"crowdpulse-api/internal/database"
	"crowdpulse-api/internal/event"
	"crowdpulse-api/internal/handler"
	"crowdpulse-api/internal/repository"
	"crowdpulse-api/internal/router"
	"crowdpulse-api/internal/service"
)

type App struct {
	server       *http.Server
	workers      context.CancelFunc
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanupFuncs := []func(){db.Close}

	fail := func(err error) (*App, error) {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		return fail(fmt.Errorf("failed to ensure database schema: %w", err))
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	topicRepo := repository.NewTopicRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	topicResultRepo := repository.NewTopicResultRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	slog.Info("database ready")

	var revocations service.RevocationStore = tokenRepo
	if cfg.RedisEnabled() {
		var redisClient *redis.Client
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		cleanupFuncs = append(cleanupFuncs, func() { _ = redisClient.Close() })
		revocations = cache.NewRevocationStore(redisClient)
		slog.Info("refresh token revocation backed by redis", "addr", cfg.RedisAddr)
	}

	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return fail(err)
	}

	codec := auth.NewCodec(cfg.JWTSecret)
	cookies := auth.NewCookieTransport(cfg.CookiePolicy, cfg.JWTAccessExpiresIn, cfg.JWTRefreshExpiresIn)
	hasher := service.NewPasswordHasher(cfg.BcryptCost)

	authService := service.NewAuthService(userRepo, codec, hasher, revocations, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	userService := service.NewUserService(userRepo, hasher)
	bus := event.NewBus()
	topicService := service.NewTopicService(topicRepo, submissionRepo, bus)
	topicResultService := service.NewTopicResultService(topicResultRepo, topicRepo, submissionRepo, analyzer, bus)
	statsService := service.NewStatsService(topicRepo, userRepo, submissionRepo)
	auditService := service.NewAuditService(auditRepo)
	scheduler := service.NewTopicScheduler(topicRepo, bus)

	if err := authService.EnsureDefaultAdmin(ctx, cfg.DefaultAdmin()); err != nil {
		return fail(fmt.Errorf("failed to seed default administrator: %w", err))
	}

	appRouter := router.New(cfg, codec, router.Handlers{
		Auth:        handler.NewAuthHandler(authService, cookies, auditService),
		Users:       handler.NewUserHandler(userService, auditService),
		Topics:      handler.NewTopicHandler(topicService),
		TopicResult: handler.NewTopicResultHandler(topicResultService),
		Stats:       handler.NewStatsHandler(statsService),
		Health:      handler.NewHealthHandler(db, time.Now()),
		Audit:       handler.NewAuditHandler(auditService),
		Docs:        handler.NewDocsHandler(),
	})

	events, unsubscribe := bus.Subscribe()
	cleanupFuncs = append(cleanupFuncs, unsubscribe)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	go auditService.Consume(workerCtx, events)
	go scheduler.Run(workerCtx, cfg.TopicSchedulerInterval)
	if !cfg.RedisEnabled() {
		go service.RunTokenCleanup(workerCtx, tokenRepo, cfg.TokenCleanupInterval)
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		ReadTimeout:       cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		workers:      workerCancel,
		cleanupFuncs: cleanupFuncs,
	}, nil
}

// newAnalyzer returns nil when no agent is configured; analysis requests then
// fail with 503.
func newAnalyzer(cfg *config.Config) (service.Analyzer, error) {
	if !cfg.AgentEnabled() {
		slog.Warn("analysis agent not configured, topic analysis disabled")
		return nil, nil
	}

	keyPEM, err := os.ReadFile(cfg.AgentPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent private key: %w", err)
	}

	signer, err := auth.NewServiceTokenSigner(keyPEM, cfg.AgentTokenIssuer, cfg.AgentTokenAudience)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent private key: %w", err)
	}

	slog.Info("analysis agent configured", "url", cfg.AgentURL)
	return agent.NewClient(cfg.AgentURL, signer, cfg.AgentTimeout), nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stop:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.workers()

	if err := a.server.Shutdown(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}

	if runErr == nil {
		slog.Info("server stopped")
	}
	return runErr
}
