package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/owagajadoh/hotspot-billing/internal/infra/redis"
	"github.com/owagajadoh/hotspot-billing/internal/usecase"
)

const (
	payRateLimit  = 5
	payRateWindow = time.Minute
)

// Server exposes the subscriber-facing purchase flow, the gateway webhook
// and the operator API over one router.
type Server struct {
	planUC        usecase.PlanUseCase
	payUC         usecase.PaymentUseCase
	accessUC      usecase.AccessUseCase
	statsUC       usecase.StatsUseCase
	auth          *AuthManager
	adminPassword string
	limiter       *redis.RateLimiter
	log           *zerolog.Logger
}

func NewServer(
	planUC usecase.PlanUseCase,
	payUC usecase.PaymentUseCase,
	accessUC usecase.AccessUseCase,
	statsUC usecase.StatsUseCase,
	auth *AuthManager,
	adminPassword string,
	limiter *redis.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "Web").Logger()
	return &Server{
		planUC:        planUC,
		payUC:         payUC,
		accessUC:      accessUC,
		statsUC:       statsUC,
		auth:          auth,
		adminPassword: adminPassword,
		limiter:       limiter,
		log:           &l,
	}
}

// Router assembles the full route tree with the common middleware stack.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))
	r.Use(Timeout(15 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/plans", s.handlePlans)
	r.Post("/pay", s.handlePay)
	r.Post("/callback", s.handleCallback)
	r.Get("/validate-user/{phone}", s.handleValidateUser)

	r.Post("/admin/login", s.handleAdminLogin)
	r.Post("/admin/logout", s.handleAdminLogout)
	r.Group(func(pr chi.Router) {
		pr.Use(s.auth.Require)
		pr.Get("/admin/stats", s.handleAdminStats)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
