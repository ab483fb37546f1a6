package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cityfire/quotation-engine/internal/reconcile"
)

// QuotationDocument is the structured result of extracting one uploaded
// quotation.
type QuotationDocument struct {
	ClientName    string               `json:"client_name"`
	ClientAddress string               `json:"client_address"`
	QuotationDate string               `json:"quotation_date"`
	Items         []reconcile.LineItem `json:"items"`
	Subtotal      float64              `json:"subtotal"`
	Discount      float64              `json:"discount"`
	GST           float64              `json:"gst"`
	Total         float64              `json:"total"`
	Notes         string               `json:"notes"`
}

// rawDocument mirrors the oracle's loosely typed JSON. Every numeric field
// may arrive as a number, a string, null, or garbage.
type rawDocument struct {
	ClientName    any       `json:"clientName"`
	ClientAddress any       `json:"clientAddress"`
	QuotationDate any       `json:"quotationDate"`
	Items         []rawItem `json:"items"`
	Subtotal      any       `json:"subtotal"`
	Discount      any       `json:"discount"`
	GST           any       `json:"gst"`
	Total         any       `json:"total"`
	Notes         any       `json:"notes"`
}

type rawItem struct {
	Name     any `json:"name"`
	Quantity any `json:"quantity"`
	Unit     any `json:"unit"`
	Rate     any `json:"rate"`
	Amount   any `json:"amount"`
}

// ParseDocument turns raw oracle output into a QuotationDocument. The oracle
// wraps its JSON in prose or markdown fences often enough that we locate the
// outermost object ourselves before decoding. Structural problems (no JSON
// object, items not a list) surface as a ValidationError; field-level noise
// is sanitized to documented defaults instead.
func ParseDocument(raw string) (*QuotationDocument, error) {
	payload, ok := extractJSONObject(raw)
	if !ok {
		return nil, &ValidationError{Fields: []string{"no JSON object in response"}}
	}

	var doc rawDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, &ValidationError{Fields: []string{fmt.Sprintf("decode: %v", err)}}
	}
	if doc.Items == nil {
		return nil, &ValidationError{Fields: []string{"items: missing or not a list"}}
	}

	out := &QuotationDocument{
		ClientName:    coerceString(doc.ClientName, ""),
		ClientAddress: coerceString(doc.ClientAddress, ""),
		QuotationDate: coerceString(doc.QuotationDate, ""),
		Subtotal:      coerceNumber(doc.Subtotal, 0),
		Discount:      coerceNumber(doc.Discount, 0),
		GST:           coerceNumber(doc.GST, 0),
		Total:         coerceNumber(doc.Total, 0),
		Notes:         coerceString(doc.Notes, ""),
		Items:         make([]reconcile.LineItem, 0, len(doc.Items)),
	}
	for _, item := range doc.Items {
		out.Items = append(out.Items, sanitizeItem(item))
	}
	return out, nil
}

// sanitizeItem coerces one raw item to the documented defaults: quantity 1
// unless the oracle explicitly said a number (zero included, it marks
// headers), rate and amount 0, name "Unknown Item", unit "Each".
func sanitizeItem(item rawItem) reconcile.LineItem {
	return reconcile.LineItem{
		Name:     coerceString(item.Name, "Unknown Item"),
		Quantity: coerceNumber(item.Quantity, 1),
		Unit:     coerceString(item.Unit, "Each"),
		Rate:     coerceNumber(item.Rate, 0),
		Amount:   coerceNumber(item.Amount, 0),
	}
}

// extractJSONObject returns the substring spanning the first '{' to the
// matching outermost '}', with any markdown code fences already discarded.
func extractJSONObject(raw string) (string, bool) {
	cleaned := raw
	if i := strings.Index(cleaned, "```"); i >= 0 {
		cleaned = cleaned[i+3:]
		cleaned = strings.TrimPrefix(cleaned, "json")
		if j := strings.Index(cleaned, "```"); j >= 0 {
			cleaned = cleaned[:j]
		}
	}
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return cleaned[start : end+1], true
}

func coerceString(v any, fallback string) string {
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

// coerceNumber accepts JSON numbers and numeric strings; anything else,
// including NaN and negatives, collapses to the fallback.
func coerceNumber(v any, fallback float64) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fallback
	}
	return f
}
