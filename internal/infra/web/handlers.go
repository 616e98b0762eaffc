package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
	"github.com/owagajadoh/hotspot-billing/internal/infra/logging"
	"github.com/owagajadoh/hotspot-billing/internal/infra/metrics"
	"github.com/owagajadoh/hotspot-billing/internal/infra/payment"
	"github.com/owagajadoh/hotspot-billing/internal/infra/redis"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

type planView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Duration  string `json:"duration"`
	Profile   string `json:"profile"`
	RateLimit string `json:"rate_limit,omitempty"`
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListActive(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("plan listing failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]planView, 0, len(plans))
	for _, p := range plans {
		out = append(out, planView{
			ID:        p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Duration:  p.Duration,
			Profile:   p.Profile,
			RateLimit: p.RateLimit,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type payRequest struct {
	Phone  string `json:"phone"`
	PlanID int64  `json:"plan_id"`
}

type payResponse struct {
	Success    bool   `json:"success"`
	CheckoutID string `json:"checkoutId"`
	Message    string `json:"message"`
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidPhone(req.Phone) {
		writeError(w, http.StatusBadRequest, "phone must be in 254XXXXXXXXX format")
		return
	}
	if !s.allowPay(r, req.Phone) {
		writeError(w, http.StatusTooManyRequests, "too many payment attempts, try again shortly")
		return
	}

	txn, err := s.payUC.Checkout(r.Context(), req.Phone, req.PlanID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidPhone):
		writeError(w, http.StatusBadRequest, "phone must be in 254XXXXXXXXX format")
		return
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusBadRequest, "unknown plan")
		return
	case errors.Is(err, domain.ErrGatewayRejected):
		writeError(w, http.StatusBadGateway, "payment provider rejected the request")
		return
	default:
		s.log.Error().Err(err).Msg("checkout failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, payResponse{
		Success:    true,
		CheckoutID: txn.CheckoutRequestID,
		Message:    "Enter your M-Pesa PIN on your phone to complete payment",
	})
}

// allowPay rate-limits prompts per phone. The limiter failing open is
// deliberate: a Redis hiccup must not block purchases.
func (s *Server) allowPay(r *http.Request, phone string) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allow(r.Context(), redis.PhoneRouteKey(phone, "pay"), payRateLimit, payRateWindow)
	if err != nil {
		s.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		return true
	}
	if !ok {
		metrics.IncRateLimitDrop("pay")
	}
	return ok
}

type callbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	res, err := payment.ParseCallback(r.Body)
	if err != nil {
		s.log.Warn().Err(err).Msg("malformed payment callback")
		writeError(w, http.StatusBadRequest, "malformed callback")
		return
	}

	// The gateway only understands the ack below; processing failures are
	// ours to log and retry, not the gateway's.
	if err := s.payUC.HandleCallback(r.Context(), res); err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("checkout_id", res.CheckoutRequestID).Msg("callback processing failed")
	}
	writeJSON(w, http.StatusOK, callbackAck{ResultCode: 0, ResultDesc: "Accepted"})
}

type subscriberView struct {
	Phone       string    `json:"phone"`
	Active      bool      `json:"active"`
	ActiveUntil time.Time `json:"active_until"`
}

func (s *Server) handleValidateUser(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	if !model.ValidPhone(phone) {
		writeError(w, http.StatusBadRequest, "phone must be in 254XXXXXXXXX format")
		return
	}
	sub, err := s.accessUC.Status(r.Context(), phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown subscriber")
			return
		}
		s.log.Error().Err(err).Msg("subscriber lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, subscriberView{
		Phone:       sub.Phone,
		Active:      sub.ActiveAt(time.Now()),
		ActiveUntil: sub.ActiveUntil,
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.adminPassword == "" ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.adminPassword)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("session mint failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsUC.Collect(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("stats collection failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
