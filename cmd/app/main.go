package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/owagajadoh/hotspot-billing/internal/config"
	pg "github.com/owagajadoh/hotspot-billing/internal/infra/db/postgres"
	"github.com/owagajadoh/hotspot-billing/internal/infra/logging"
	"github.com/owagajadoh/hotspot-billing/internal/infra/metrics"
	"github.com/owagajadoh/hotspot-billing/internal/infra/nas"
	darajaGW "github.com/owagajadoh/hotspot-billing/internal/infra/payment"
	red "github.com/owagajadoh/hotspot-billing/internal/infra/redis"
	"github.com/owagajadoh/hotspot-billing/internal/infra/sched"
	"github.com/owagajadoh/hotspot-billing/internal/infra/web"
	"github.com/owagajadoh/hotspot-billing/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPostgresPlanRepo(pool), redisClient, cfg.Redis.TTL)
	txnRepo := pg.NewTransactionRepo(pool)
	subRepo := pg.NewSubscriberRepo(pool)
	jobRepo := pg.NewProvisionJobRepo(pool)

	// ---- Access controller ----
	session := nas.NewSessionManager(cfg.NAS, logger)
	defer session.Close()
	executor := nas.NewExecutor(session, logger)
	controller := nas.NewProvisioner(executor, logger)

	// ---- Payment gateway ----
	gateway := darajaGW.NewDarajaGateway(
		cfg.Payment.Daraja.BaseURL,
		cfg.Payment.Daraja.ConsumerKey,
		cfg.Payment.Daraja.ConsumerSecret,
		cfg.Payment.Daraja.ShortCode,
		cfg.Payment.Daraja.Passkey,
		cfg.Payment.Daraja.CallbackURL,
	)

	// ---- Use cases ----
	planUC := usecase.NewPlanUseCase(planRepo)
	accessUC := usecase.NewAccessUseCase(txManager, subRepo, jobRepo, controller, cfg.Sched.ProvisionMaxAttempts, logger)
	paymentUC := usecase.NewPaymentUseCase(txnRepo, planRepo, gateway, accessUC, logger)
	statsUC := usecase.NewStatsUseCase(subRepo, txnRepo)

	// ---- Workers ----
	profileSync := sched.NewProfileSyncWorker(cfg.Sched.ProfileSyncInterval, planUC, controller, logger)
	go func() { _ = profileSync.Run(ctx) }()
	provisionRetry := sched.NewProvisionRetryWorker(cfg.Sched.ProvisionRetryInterval, jobRepo, accessUC, logger)
	go func() { _ = provisionRetry.Run(ctx) }()

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Admin.SessionSecret, cfg.Admin.SecureCookie && !cfg.Runtime.Dev, 30*time.Minute)
	srv := web.NewServer(planUC, paymentUC, accessUC, statsUC, auth, cfg.Admin.Password, rateLimiter, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
