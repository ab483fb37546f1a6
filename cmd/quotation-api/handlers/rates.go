package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/cityfire/quotation-engine/internal/extract"
	"github.com/cityfire/quotation-engine/internal/observability"
	"github.com/cityfire/quotation-engine/internal/ratelimit"
)

// RateHandler serves market-rate estimates for item descriptions.
type RateHandler struct {
	logger    *observability.Logger
	estimator *extract.RateEstimator
	limiter   *ratelimit.Limiter
}

// NewRateHandler creates a new rate handler.
func NewRateHandler(logger *observability.Logger, estimator *extract.RateEstimator, limiter *ratelimit.Limiter) *RateHandler {
	return &RateHandler{logger: logger, estimator: estimator, limiter: limiter}
}

// RateRequestDTO is the API request for a rate estimate.
type RateRequestDTO struct {
	Description string `json:"description"`
}

// RateResponseDTO is the API response. Found is false when the oracle had
// no confident estimate; the caller falls back to manual pricing.
type RateResponseDTO struct {
	Rate  float64 `json:"rate"`
	Found bool    `json:"found"`
}

// Estimate handles POST /rates/estimate.
func (h *RateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var dto RateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if dto.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required", "")
		return
	}

	log := h.logger.WithContext(r.Context()).WithOperation("estimate_rate")
	rate, err := h.estimator.Estimate(r.Context(), dto.Description)
	switch {
	case errors.Is(err, extract.ErrNoConfidentRate):
		log.Debug().Bool("found", false).Msg("No confident rate")
		writeJSON(w, http.StatusOK, RateResponseDTO{Rate: 0, Found: false})
	case errors.Is(err, extract.ErrOracleUnavailable):
		log.Error().Err(err).Msg("Rate oracle unavailable")
		writeError(w, http.StatusServiceUnavailable, "rate estimation unavailable", err.Error())
	case err != nil:
		log.Error().Err(err).Msg("Rate estimation failed")
		writeError(w, http.StatusInternalServerError, "rate estimation failed", err.Error())
	default:
		log.Debug().Float64("rate", rate).Bool("found", true).Msg("Rate estimated")
		writeJSON(w, http.StatusOK, RateResponseDTO{Rate: rate, Found: true})
	}
}

// Usage handles GET /rates/usage, reporting the caller's remaining oracle
// budget without consuming any of it.
func (h *RateHandler) Usage(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	writeJSON(w, http.StatusOK, h.limiter.Usage(host))
}
