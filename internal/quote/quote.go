// Package quote assembles quotations from reconciled line items and
// computes their totals.
package quote

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cityfire/quotation-engine/internal/reconcile"
	"github.com/cityfire/quotation-engine/internal/storage"
)

// Totals is the money summary of a quotation.
type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	AfterDiscount float64 `json:"after_discount"`
	GST           float64 `json:"gst"`
	Total         float64 `json:"total"`
}

// Config holds the percentage rates applied when the respective toggle is
// on.
type Config struct {
	DiscountPercent float64
	GSTPercent      float64
}

// Options selects which adjustments apply to one quotation.
type Options struct {
	ApplyDiscount bool
	ApplyGST      bool
}

// ComputeTotals sums billable line amounts, then applies discount and GST
// in that order: GST is charged on the discounted value. Header rows
// (quantity zero) never contribute, whatever their rate or amount fields
// hold. All figures round to two decimals.
func ComputeTotals(items []storage.QuotationItem, cfg Config, opts Options) Totals {
	var subtotal float64
	for _, item := range items {
		if item.IsHeader() {
			continue
		}
		subtotal += item.Amount
	}

	t := Totals{Subtotal: round2(subtotal)}
	if opts.ApplyDiscount {
		t.Discount = round2(subtotal * cfg.DiscountPercent / 100)
	}
	t.AfterDiscount = round2(subtotal - t.Discount)
	if opts.ApplyGST {
		t.GST = round2(t.AfterDiscount * cfg.GSTPercent / 100)
	}
	t.Total = round2(t.AfterDiscount + t.GST)
	return t
}

// Builder turns reconciled items into persisted quotations.
type Builder struct {
	cfg        Config
	quotations *storage.QuotationRepository
}

// NewBuilder creates a quotation builder.
func NewBuilder(cfg Config, quotations *storage.QuotationRepository) *Builder {
	return &Builder{cfg: cfg, quotations: quotations}
}

// BuildRequest carries everything needed to assemble one quotation.
type BuildRequest struct {
	ClientName    string
	ClientAddress string
	QuotationDate time.Time
	QuotationType string
	Notes         string
	Items         []reconcile.ReconciledItem
	Options       Options
}

// Build converts reconciled items into quotation rows in document order,
// computes totals, and persists the result.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*storage.Quotation, error) {
	items := make([]storage.QuotationItem, 0, len(req.Items))
	for _, item := range req.Items {
		row := storage.QuotationItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Unit:      item.Unit,
			Quantity:  item.Quantity,
			Rate:      item.Rate,
			Amount:    item.Amount,
		}
		if item.Header {
			row.Quantity = 0
			row.Rate = 0
			row.Amount = 0
		}
		items = append(items, row)
	}

	totals := ComputeTotals(items, b.cfg, req.Options)
	date := req.QuotationDate
	if date.IsZero() {
		date = time.Now()
	}

	q := &storage.Quotation{
		ClientName:    req.ClientName,
		ClientAddress: req.ClientAddress,
		QuotationDate: date,
		QuotationType: req.QuotationType,
		Notes:         req.Notes,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		GST:           totals.GST,
		Total:         totals.Total,
		Items:         items,
	}
	if b.quotations != nil {
		if err := b.quotations.Create(ctx, q); err != nil {
			return nil, fmt.Errorf("save quotation: %w", err)
		}
	}
	return q, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
