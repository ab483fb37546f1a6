package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityfire/quotation-engine/internal/cache"
	"github.com/cityfire/quotation-engine/internal/observability"
)

func testEstimator(oracle Oracle) (*RateEstimator, *cache.MemoryClient) {
	c := cache.NewMemoryClient(100)
	r := NewRateEstimator(oracle, c, Config{
		Models:      []string{"model-a"},
		MaxAttempts: 2,
		BackoffBase: time.Millisecond,
	}, 500, time.Hour, observability.DefaultLogger())
	r.sleep = noSleep
	return r, c
}

func TestEstimator_ParsesJSONRate(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{`{"rate": 1850}`}}
	r, _ := testEstimator(oracle)

	rate, err := r.Estimate(context.Background(), "Fire Extinguisher ABC 6kg")
	require.NoError(t, err)
	assert.Equal(t, 1850.0, rate)
}

func TestEstimator_DigitRunFallback(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{"The going rate is around 2400 rupees per unit."}}
	r, _ := testEstimator(oracle)

	rate, err := r.Estimate(context.Background(), "Hydrant Valve")
	require.NoError(t, err)
	assert.Equal(t, 2400.0, rate)
}

func TestEstimator_NoUsableRate(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{"I cannot estimate a price for that item."}}
	r, _ := testEstimator(oracle)

	_, err := r.Estimate(context.Background(), "Mystery Item")
	assert.ErrorIs(t, err, ErrNoConfidentRate)
}

func TestEstimator_CachesEstimates(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{`{"rate": 950}`}}
	r, _ := testEstimator(oracle)
	ctx := context.Background()

	first, err := r.Estimate(ctx, "Hose Reel Drum")
	require.NoError(t, err)

	// Second lookup is served from cache; the script has no second entry.
	second, err := r.Estimate(ctx, "hose reel drum")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, oracle.calls, 1)
}

func TestEstimator_TruncatesLongDescriptions(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{`{"rate": 100}`}}
	r, _ := testEstimator(oracle)

	long := strings.Repeat("pipe fittings and accessories ", 40)
	_, err := r.Estimate(context.Background(), long)
	require.NoError(t, err)
}

func TestEstimator_OracleDown(t *testing.T) {
	transient := errors.New("overloaded")
	oracle := &scriptedOracle{errs: []error{transient, transient}}
	r, _ := testEstimator(oracle)

	_, err := r.Estimate(context.Background(), "Sprinkler Head")
	assert.ErrorIs(t, err, ErrOracleUnavailable)
}

func TestParseRate(t *testing.T) {
	rate, ok := parseRate(`{"rate": 42.5}`)
	assert.True(t, ok)
	assert.Equal(t, 42.5, rate)

	rate, ok = parseRate("```json\n{\"rate\": \"1200\"}\n```")
	assert.True(t, ok)
	assert.Equal(t, 1200.0, rate)

	rate, ok = parseRate("roughly 300 to 400")
	assert.True(t, ok)
	assert.Equal(t, 300.0, rate)

	_, ok = parseRate("no idea")
	assert.False(t, ok)
}
