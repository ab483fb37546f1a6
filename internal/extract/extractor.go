package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cityfire/quotation-engine/internal/observability"
)

const extractionPrompt = `You are reading a quotation or invoice for fire-safety equipment.
Extract its contents as a single JSON object with exactly these fields:
clientName (string), clientAddress (string), quotationDate (string),
items (array of {name, quantity, unit, rate, amount}), subtotal (number),
discount (number), gst (number), total (number), notes (string).
Keep item order exactly as it appears in the document, including section
heading rows. Respond with JSON only.`

// Config tunes the extractor's model fallback and retry behavior.
type Config struct {
	// Models are candidate model identifiers, tried in priority order.
	Models []string
	// MaxAttempts bounds retries per model for transient failures.
	MaxAttempts int
	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration
}

// DocumentExtractor converts uploaded quotation documents into structured
// line items via the extraction oracle.
type DocumentExtractor struct {
	oracle Oracle
	cfg    Config
	log    *observability.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewDocumentExtractor creates an extractor over the given oracle.
func NewDocumentExtractor(oracle Oracle, cfg Config, log *observability.Logger) *DocumentExtractor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	return &DocumentExtractor{
		oracle: oracle,
		cfg:    cfg,
		log:    log,
		sleep:  sleepCtx,
	}
}

// Extract runs the document through the oracle and parses the result.
//
// Failure handling walks a fixed ladder: each candidate model gets up to
// MaxAttempts tries, with exponential backoff between attempts, but only
// transient failures (rate limiting, overload) are retried. A model that
// fails terminally is abandoned for the next candidate. A response that
// arrives but cannot be parsed is ErrMalformedResponse and is not retried;
// the same prompt would fail the same way. Only when every candidate is
// exhausted does the call surface ErrOracleUnavailable, wrapping the last
// failure seen.
func (e *DocumentExtractor) Extract(ctx context.Context, doc Document) (*QuotationDocument, error) {
	raw, err := e.generate(ctx, extractionPrompt, &doc)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseDocument(raw)
	if err != nil {
		e.log.Warn().Err(err).Str("raw", truncate(raw, 200)).Msg("unparseable extraction response")
		return nil, err
	}
	e.log.Info().Int("items", len(parsed.Items)).Msg("document extracted")
	return parsed, nil
}

func (e *DocumentExtractor) generate(ctx context.Context, prompt string, doc *Document) (string, error) {
	return generateWithFallback(ctx, e.oracle, e.cfg, e.log, e.sleep, prompt, doc)
}

// generateWithFallback walks the model candidate list, giving each up to
// MaxAttempts tries with doubling backoff on transient failures only.
func generateWithFallback(ctx context.Context, oracle Oracle, cfg Config, log *observability.Logger, sleep func(context.Context, time.Duration) error, prompt string, doc *Document) (string, error) {
	var lastErr error
	for _, model := range cfg.Models {
		for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			if attempt > 0 {
				delay := cfg.BackoffBase << (attempt - 1)
				if err := sleep(ctx, delay); err != nil {
					return "", err
				}
			}

			raw, err := oracle.Generate(ctx, model, prompt, doc)
			if err == nil {
				return raw, nil
			}
			lastErr = err

			if !isTransient(err) {
				log.Warn().Err(err).Str("model", model).Msg("model failed, trying next candidate")
				break
			}
			log.Warn().Err(err).Str("model", model).Int("attempt", attempt+1).Msg("transient oracle failure")
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no models configured")
	}
	return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
