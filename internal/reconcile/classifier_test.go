package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSerial(t *testing.T) {
	tests := []struct {
		name   string
		serial string
		ok     bool
	}{
		{"6 Fire Pump Room", "6", true},
		{"6.1 Main Pump", "6.1", true},
		{"6.1.2 Jockey Pump", "6.1.2", true},
		{"1. Pumps", "1", true},
		{"  2.3 Pipe", "2.3", true},
		{"Fire Extinguisher", "", false},
		{"", "", false},
		{"2280 lpm pump", "2280", true},
	}
	for _, tt := range tests {
		serial, ok := parseSerial(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.serial, serial, tt.name)
	}
}

func TestIsDescendantSerial(t *testing.T) {
	assert.True(t, isDescendantSerial("6.1", "6"))
	assert.True(t, isDescendantSerial("6.1.2", "6"))
	assert.True(t, isDescendantSerial("6.1.2", "6.1"))
	assert.False(t, isDescendantSerial("61", "6"))
	assert.False(t, isDescendantSerial("6", "6"))
	assert.False(t, isDescendantSerial("7.1", "6"))
}

func TestClassifier_HeaderByNumbering(t *testing.T) {
	c := NewClassifier([]string{"section"})

	items := []LineItem{
		{Name: "1 Pump Header", Quantity: 1, Rate: 0},
		{Name: "1.1 2280 lpm", Quantity: 1, Rate: 500},
	}
	out := c.Classify(items)
	require.Len(t, out, 2)

	assert.True(t, out[0].Header)
	assert.Equal(t, 0.0, out[0].Quantity)
	assert.False(t, out[1].Header)
	assert.Equal(t, "1 Pump Header 1.1 2280 lpm", out[1].Context)
}

func TestClassifier_HeaderByKeyword(t *testing.T) {
	c := NewClassifier([]string{"section"})

	items := []LineItem{
		{Name: "Section A: Detection System", Quantity: 1, Rate: 0},
		{Name: "Smoke Detector", Quantity: 4, Rate: 450},
	}
	out := c.Classify(items)

	assert.True(t, out[0].Header)
	assert.Equal(t, 0.0, out[0].Quantity)
	// No numerals, so the keyword header lends no context.
	assert.Equal(t, "Smoke Detector", out[1].Context)
}

func TestClassifier_RateBearingItemIsNotHeader(t *testing.T) {
	c := NewClassifier([]string{"section"})

	items := []LineItem{
		{Name: "1 Installation Charges", Quantity: 1, Rate: 5000},
		{Name: "1.1 Labour", Quantity: 2, Rate: 800},
	}
	out := c.Classify(items)

	assert.False(t, out[0].Header)
	assert.Equal(t, 1.0, out[0].Quantity)
	assert.Equal(t, "1.1 Labour", out[1].Context)
}

func TestClassifier_NearestAncestorWins(t *testing.T) {
	c := NewClassifier([]string{"section"})

	items := []LineItem{
		{Name: "1 Fire Hydrant System", Rate: 0},
		{Name: "1.1 Piping", Rate: 0},
		{Name: "1.1.1 GI Pipe 80mm", Quantity: 120, Rate: 350},
		{Name: "1.2 Hydrant Valve", Quantity: 6, Rate: 2400},
	}
	out := c.Classify(items)

	assert.True(t, out[0].Header)
	assert.True(t, out[1].Header)
	assert.Equal(t, "1.1 Piping 1.1.1 GI Pipe 80mm", out[2].Context)
	assert.Equal(t, "1 Fire Hydrant System 1.2 Hydrant Valve", out[3].Context)
}

func TestClassifier_NoNumeralNeverHeaderByNumbering(t *testing.T) {
	c := NewClassifier([]string{"section"})

	items := []LineItem{
		{Name: "Supply of the following", Rate: 0},
		{Name: "1.1 Hose Reel", Quantity: 2, Rate: 900},
	}
	out := c.Classify(items)

	assert.False(t, out[0].Header)
	assert.Equal(t, "1.1 Hose Reel", out[1].Context)
}

func TestClassifier_LastItemWithZeroRateIsNotHeader(t *testing.T) {
	c := NewClassifier([]string{"section"})

	items := []LineItem{
		{Name: "1 Fire Alarm Panel", Quantity: 1, Rate: 0},
	}
	out := c.Classify(items)

	assert.False(t, out[0].Header)
	assert.Equal(t, 1.0, out[0].Quantity)
}

func TestClassifier_PreservesOrder(t *testing.T) {
	c := NewClassifier([]string{"section"})

	items := []LineItem{
		{Name: "2 Sprinkler System", Rate: 0},
		{Name: "2.1 Sprinkler Head", Quantity: 40, Rate: 120},
		{Name: "2.2 Alarm Valve", Quantity: 1, Rate: 8000},
	}
	out := c.Classify(items)
	require.Len(t, out, 3)
	for i := range items {
		assert.Equal(t, items[i].Name, out[i].Name)
	}
}
