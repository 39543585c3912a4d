package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rendydev404/beatly/internal/config"
	"github.com/rendydev404/beatly/internal/infra/httpclient"
	"github.com/rendydev404/beatly/internal/infra/midtrans"
	pgrepo "github.com/rendydev404/beatly/internal/repo/postgres"
	redrepo "github.com/rendydev404/beatly/internal/repo/redis"
	authsvc "github.com/rendydev404/beatly/internal/services/auth"
	billingsvc "github.com/rendydev404/beatly/internal/services/billing"
	planssvc "github.com/rendydev404/beatly/internal/services/plans"
	profilesvc "github.com/rendydev404/beatly/internal/services/profile"
	subssvc "github.com/rendydev404/beatly/internal/services/subscription"
	usagesvc "github.com/rendydev404/beatly/internal/services/usage"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, plan cache disabled", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		}
	}

	subscriptionRepo := pgrepo.NewSubscriptionRepo(pool)
	planRepo := pgrepo.NewPlanRepo(pool)
	transactionRepo := pgrepo.NewTransactionRepo(pool)
	listeningRepo := pgrepo.NewListeningRepo(pool)
	planCache := redrepo.NewPlanCacheRepo(redisClient, cfg.App.PlanCacheTTL)

	var gateway billingsvc.Gateway
	if client, err := midtrans.NewClient(midtrans.Config{
		ServerKey:   cfg.Midtrans.ServerKey,
		SnapBaseURL: cfg.Midtrans.SnapBaseURL,
		APIBaseURL:  cfg.Midtrans.APIBaseURL,
	}, httpclient.New(cfg.Midtrans.Timeout)); err != nil {
		log.Warn("midtrans init failed, payments disabled", zap.Error(err))
	} else {
		gateway = client
	}

	verifier := authsvc.NewVerifier(cfg.Auth.JWTSecret)
	usageService := usagesvc.NewService(subscriptionRepo, planRepo, usagesvc.Config{
		FreeDailyLimit: cfg.Quota.FreeDailyLimit,
	}, log)
	subscriptionService := subssvc.NewService(subscriptionRepo, planRepo, subssvc.Config{
		FreeDailyLimit: cfg.Quota.FreeDailyLimit,
	}, log)
	billingService := billingsvc.NewService(transactionRepo, subscriptionService, gateway, billingsvc.Config{
		FinishURL: cfg.App.BaseURL + "/payment/finish",
	}, log)
	plansService := planssvc.NewService(planRepo, planCache, log)
	profileService := profilesvc.NewService(listeningRepo, subscriptionService, log)

	deps := Dependencies{
		Verifier:            verifier,
		UsageService:        usageService,
		SubscriptionService: subscriptionService,
		BillingService:      billingService,
		PlanFinder:          planRepo,
		PlansService:        plansService,
		ProfileService:      profileService,
		Logger:              log,
		Config:              cfg,
	}
	if pool != nil {
		deps.HealthPinger = pool
	}
	RegisterRoutes(r, deps)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
