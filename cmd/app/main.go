// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"lineup-entitlements/internal/config"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/infra/adapters/notify"
	"lineup-entitlements/internal/infra/api"
	apiv1 "lineup-entitlements/internal/infra/api/apiv1"
	pg "lineup-entitlements/internal/infra/db/postgres"
	"lineup-entitlements/internal/infra/logging"
	"lineup-entitlements/internal/infra/metrics"
	red "lineup-entitlements/internal/infra/redis"
	"lineup-entitlements/internal/infra/worker"
	"lineup-entitlements/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no-op notifier)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("entitlements service stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(nil)
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	codeRepo := pg.NewPostgresPromotionCodeRepo(pool)
	redemptionRepo := pg.NewPostgresRedemptionRepo(pool)
	targetRepo := pg.NewPostgresEntitlementRepo(pool)
	eventRepo := pg.NewPostgresPaymentEventRepo(pool)
	settingsRepo := pg.NewPostgresSettingsRepo(pool)
	settings := pg.NewSettingsCache(settingsRepo, redisClient, cfg.Redis.TTL, fallbackSettings(cfg), logger)

	// ---- Notifications ----
	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return err
	}
	notifyPool := worker.NewPool(cfg.Notify.Workers, cfg.Notify.QueueSize, logger)
	// detached from the signal so Stop can drain queued notices
	notifyPool.Start(context.WithoutCancel(ctx))
	defer notifyPool.Stop()
	notifyUC := usecase.NewNotificationUseCase(notifier, notifyPool, logger)

	// ---- Use cases ----
	teamMode, err := model.ParseGrantMode(cfg.Entitlement.TeamPaymentMode)
	if err != nil {
		return fmt.Errorf("entitlement.team_payment_mode: %w", err)
	}
	uc := apiv1.UseCases{
		Redemption: usecase.NewRedemptionUseCase(codeRepo, redemptionRepo, targetRepo, settings, notifyUC, tm,
			usecase.RedemptionConfig{OrgPromoResetsTeamCounter: cfg.Entitlement.OrgPromoResetsTeamCounter}, logger),
		Reconciliation: usecase.NewReconciliationUseCase(eventRepo, targetRepo, settings, notifyUC, tm,
			usecase.ReconciliationConfig{
				TeamPaymentMode:      teamMode,
				RecordFailedPayments: cfg.Entitlement.RecordFailedPayments,
			}, logger),
		Entitlement: usecase.NewEntitlementUseCase(targetRepo, logger),
		Checkout:    usecase.NewCheckoutUseCase(targetRepo, settings, logger),
		Settings:    usecase.NewSettingsUseCase(settingsRepo, settings, logger),
		Stats:       usecase.NewStatsUseCase(eventRepo, logger),
		Promotions:  usecase.NewPromotionUseCase(codeRepo, logger),
	}

	// ---- HTTP ----
	srv := apiv1.NewServer(uc, api.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer), rateLimiter, apiv1.Config{
		WebhookSecret:    cfg.Webhook.Secret,
		SignatureHeader:  cfg.Webhook.SignatureHeader,
		AdminAPIKey:      cfg.Admin.APIKey,
		RedeemRateLimit:  cfg.Entitlement.RedeemRateLimit,
		RedeemRateWindow: cfg.Entitlement.RedeemRateWindow,
		RequestTimeout:   cfg.HTTP.WriteTimeout,
	}, logger)
	httpServer := api.NewServer(cfg.HTTP, apiv1.NewRouter(srv), logger)

	errc := make(chan error, 1)
	go func() { errc <- httpServer.Start() }()

	// ---- Graceful shutdown ----
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// fallbackSettings is served while the settings row is missing.
func fallbackSettings(cfg *config.Config) model.Settings {
	return model.Settings{
		DefaultDurationDays: cfg.Entitlement.DefaultDurationDays,
		UnlockPrice:         cfg.Entitlement.UnlockPrice,
		UnlockCurrency:      cfg.Entitlement.UnlockCurrency,
	}
}

func buildNotifier(cfg *config.Config, logger *zerolog.Logger) (adapter.Notifier, error) {
	if cfg.Runtime.Dev {
		return notify.NewNoopNotifier(logger, true), nil
	}
	var channels []adapter.Notifier
	if pm := cfg.Notify.Postmark; pm.ServerToken != "" {
		email, err := notify.NewEmailNotifier(pm.ServerToken, pm.AccountToken, pm.SenderEmail)
		if err != nil {
			return nil, fmt.Errorf("postmark: %w", err)
		}
		channels = append(channels, email)
	}
	if tg := cfg.Notify.Telegram; tg.Token != "" {
		bot, err := notify.NewTelegramNotifier(tg.Token, tg.AdminChatIDs)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		channels = append(channels, bot)
	}
	if len(channels) == 0 {
		logger.Warn().Msg("no notification channel configured; notices are only logged")
		return notify.NewNoopNotifier(logger, false), nil
	}
	return notify.NewMultiNotifier(channels...), nil
}
