package apiv1

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"lineup-entitlements/internal/infra/api"
	"lineup-entitlements/internal/usecase"
)

// RateLimiter caps redemption attempts per actor (redis.RateLimiter).
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// UseCases are the engines behind the routes.
type UseCases struct {
	Redemption     usecase.RedemptionUseCase
	Reconciliation usecase.ReconciliationUseCase
	Entitlement    usecase.EntitlementUseCase
	Checkout       usecase.CheckoutUseCase
	Settings       usecase.SettingsUseCase
	Stats          usecase.StatsUseCase
	Promotions     usecase.PromotionUseCase
}

type Config struct {
	WebhookSecret    string
	SignatureHeader  string
	AdminAPIKey      string
	RedeemRateLimit  int
	RedeemRateWindow time.Duration
	RequestTimeout   time.Duration
}

type Server struct {
	uc      UseCases
	tokens  *api.TokenVerifier
	limiter RateLimiter
	cfg     Config
	log     *zerolog.Logger
}

func NewServer(uc UseCases, tokens *api.TokenVerifier, limiter RateLimiter, cfg Config, logger *zerolog.Logger) *Server {
	if cfg.SignatureHeader == "" {
		cfg.SignatureHeader = "X-Webhook-Signature"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Server{uc: uc, tokens: tokens, limiter: limiter, cfg: cfg, log: logger}
}

// NewRouter builds the full HTTP surface: middleware, probes and /api/v1.
func NewRouter(s *Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(
		api.TraceID(),
		api.Recover(s.log),
		api.RequestLog(s.log),
		api.Timeout(s.cfg.RequestTimeout),
	)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	RegisterAPIV1(r, s)
	return r
}

// RegisterAPIV1 mounts the versioned routes on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/payments", s.handlePaymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(api.RequireActor(s.tokens, s.log))
			r.Post("/promotions/redeem", s.handleRedeem)
			r.Get("/entitlements/{kind}/{id}", s.handleGetEntitlement)
			r.Get("/checkout/{kind}/{id}/quote", s.handleQuote)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(api.RequireAdminKey(s.cfg.AdminAPIKey, s.log))
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)
			r.Post("/settings/invalidate", s.handleInvalidateSettings)
			r.Get("/revenue", s.handleRevenue)
			r.Post("/promotions", s.handleCreatePromotion)
			r.Delete("/promotions/{code}", s.handleDeactivatePromotion)
		})
	})
}
