package extract

import "errors"

// Sentinel errors surfaced by the extraction layer.
var (
	// ErrOracleUnavailable means every model candidate failed after retries.
	ErrOracleUnavailable = errors.New("extraction oracle unavailable")

	// ErrMalformedResponse means the oracle answered but its output did not
	// contain a valid document payload. Not retried: the same prompt would
	// likely fail the same way.
	ErrMalformedResponse = errors.New("malformed oracle response")

	// ErrNoConfidentRate means the rate oracle produced no usable estimate.
	// Callers treat this as "no data", not as a failure.
	ErrNoConfidentRate = errors.New("no confident rate estimate")
)

// ValidationError reports which fields of the oracle's JSON payload failed
// schema validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	msg := "invalid extraction payload"
	for i, f := range e.Fields {
		if i == 0 {
			msg += ": "
		} else {
			msg += ", "
		}
		msg += f
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrMalformedResponse }
