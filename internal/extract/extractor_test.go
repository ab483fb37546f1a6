package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityfire/quotation-engine/internal/observability"
)

type fakeCall struct {
	model string
}

// scriptedOracle returns canned responses/errors in order and records the
// model used for every call.
type scriptedOracle struct {
	responses []string
	errs      []error
	calls     []fakeCall
}

func (o *scriptedOracle) Generate(ctx context.Context, model, prompt string, doc *Document) (string, error) {
	i := len(o.calls)
	o.calls = append(o.calls, fakeCall{model: model})
	if i < len(o.errs) && o.errs[i] != nil {
		return "", o.errs[i]
	}
	if i < len(o.responses) {
		return o.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func testExtractor(oracle Oracle, models ...string) *DocumentExtractor {
	e := NewDocumentExtractor(oracle, Config{
		Models:      models,
		MaxAttempts: 2,
		BackoffBase: time.Millisecond,
	}, observability.DefaultLogger())
	e.sleep = noSleep
	return e
}

var validResponse = `{"clientName": "X", "items": [{"name": "Hose Reel", "quantity": 2, "unit": "Nos", "rate": 900, "amount": 1800}]}`

func TestExtractor_Success(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{validResponse}}
	e := testExtractor(oracle, "model-a")

	doc, err := e.Extract(context.Background(), Document{MIMEType: "image/png", Data: []byte{1}})
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Hose Reel", doc.Items[0].Name)
	assert.Len(t, oracle.calls, 1)
}

func TestExtractor_RetriesTransientThenSucceeds(t *testing.T) {
	oracle := &scriptedOracle{
		errs:      []error{errors.New("model overloaded, try again"), nil},
		responses: []string{"", validResponse},
	}
	e := testExtractor(oracle, "model-a")

	_, err := e.Extract(context.Background(), Document{})
	require.NoError(t, err)
	require.Len(t, oracle.calls, 2)
	assert.Equal(t, "model-a", oracle.calls[0].model)
	assert.Equal(t, "model-a", oracle.calls[1].model)
}

func TestExtractor_TerminalErrorSkipsToNextModel(t *testing.T) {
	oracle := &scriptedOracle{
		errs:      []error{errors.New("invalid argument"), nil},
		responses: []string{"", validResponse},
	}
	e := testExtractor(oracle, "model-a", "model-b")

	_, err := e.Extract(context.Background(), Document{})
	require.NoError(t, err)
	// No retry on model-a: terminal failures move straight to model-b.
	require.Len(t, oracle.calls, 2)
	assert.Equal(t, "model-a", oracle.calls[0].model)
	assert.Equal(t, "model-b", oracle.calls[1].model)
}

func TestExtractor_AllModelsExhausted(t *testing.T) {
	transient := errors.New("resource exhausted")
	oracle := &scriptedOracle{errs: []error{transient, transient, transient, transient}}
	e := testExtractor(oracle, "model-a", "model-b")

	_, err := e.Extract(context.Background(), Document{})
	assert.ErrorIs(t, err, ErrOracleUnavailable)
	// 2 attempts per model, both models tried.
	assert.Len(t, oracle.calls, 4)
}

func TestExtractor_MalformedResponseNotRetried(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{"no json here"}}
	e := testExtractor(oracle, "model-a", "model-b")

	_, err := e.Extract(context.Background(), Document{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Len(t, oracle.calls, 1)
}

func TestExtractor_CancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	oracle := &scriptedOracle{errs: []error{errors.New("overloaded")}}
	e := testExtractor(oracle, "model-a", "model-b")
	e.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := e.Extract(ctx, Document{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, oracle.calls, 1)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(errors.New("model is overloaded")))
	assert.True(t, isTransient(errors.New("RESOURCE_EXHAUSTED")))
	assert.True(t, isTransient(errors.New("googleapi: Error 503: unavailable")))
	assert.False(t, isTransient(errors.New("invalid api key")))
	assert.False(t, isTransient(errors.New("bad request")))
}
