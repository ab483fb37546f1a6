package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/cityfire/quotation-engine/internal/cache"
	"github.com/cityfire/quotation-engine/internal/observability"
)

const ratePromptFormat = `Estimate the current Indian market rate in INR for this
fire-safety item: %q. Respond with a single JSON object {"rate": <number>}
and nothing else.`

var digitRun = regexp.MustCompile(`\d+`)

// RateEstimator asks the oracle for a market-rate estimate of an item
// description. Estimates are memoized in the cache; the oracle is only
// consulted on a miss.
type RateEstimator struct {
	oracle      Oracle
	cache       cache.Client
	cfg         Config
	maxQueryLen int
	cacheTTL    time.Duration
	log         *observability.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRateEstimator creates a rate estimator. maxQueryLen bounds how much of
// the item description is sent to the oracle; cacheTTL is how long estimates
// are memoized.
func NewRateEstimator(oracle Oracle, c cache.Client, cfg Config, maxQueryLen int, cacheTTL time.Duration, log *observability.Logger) *RateEstimator {
	if maxQueryLen <= 0 {
		maxQueryLen = 500
	}
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	return &RateEstimator{
		oracle:      oracle,
		cache:       c,
		cfg:         cfg,
		maxQueryLen: maxQueryLen,
		cacheTTL:    cacheTTL,
		log:         log,
		sleep:       sleepCtx,
	}
}

// Estimate returns a market-rate guess for the description, or
// ErrNoConfidentRate when the oracle had nothing usable. Oracle outages
// surface as ErrOracleUnavailable.
func (r *RateEstimator) Estimate(ctx context.Context, description string) (float64, error) {
	query := truncate(description, r.maxQueryLen)
	key := cache.RateKey(query)

	if cached, err := r.cache.Get(ctx, key); err == nil {
		if rate, err := strconv.ParseFloat(string(cached), 64); err == nil {
			return rate, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.log.Warn().Err(err).Msg("rate cache lookup failed")
	}

	raw, err := generateWithFallback(ctx, r.oracle, r.cfg, r.log, r.sleep, fmt.Sprintf(ratePromptFormat, query), nil)
	if err != nil {
		return 0, err
	}

	rate, ok := parseRate(raw)
	if !ok || rate <= 0 {
		r.log.Info().Str("raw", truncate(raw, 120)).Msg("no usable rate in oracle response")
		return 0, ErrNoConfidentRate
	}

	if err := r.cache.Set(ctx, key, []byte(strconv.FormatFloat(rate, 'f', -1, 64)), r.cacheTTL); err != nil {
		r.log.Warn().Err(err).Msg("rate cache store failed")
	}
	return rate, nil
}

// parseRate reads {"rate": n} out of the response, falling back to the
// first run of digits in the raw text when the JSON does not decode.
func parseRate(raw string) (float64, bool) {
	if payload, ok := extractJSONObject(raw); ok {
		var body struct {
			Rate any `json:"rate"`
		}
		if err := json.Unmarshal([]byte(payload), &body); err == nil {
			if rate := coerceNumber(body.Rate, -1); rate >= 0 {
				return rate, true
			}
		}
	}
	if digits := digitRun.FindString(raw); digits != "" {
		if rate, err := strconv.ParseFloat(digits, 64); err == nil {
			return rate, true
		}
	}
	return 0, false
}
