// Package storage provides database models and repositories for the quotation engine.
package storage

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies catalog products by line of business.
type Category string

const (
	CategoryRefilling   Category = "refilling"
	CategoryNewSupply   Category = "new-supply"
	CategoryAccessories Category = "accessories"
	CategoryHPT         Category = "hpt"
	CategoryAMC         Category = "amc"
	CategoryGeneral     Category = "general"
)

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryRefilling, CategoryNewSupply, CategoryAccessories,
		CategoryHPT, CategoryAMC, CategoryGeneral:
		return true
	}
	return false
}

// Product is a catalog entry. Rate is the unit price in INR.
type Product struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Unit      string    `json:"unit"`
	Rate      float64   `json:"rate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Quotation is a persisted quotation with its line items.
type Quotation struct {
	ID            uuid.UUID `json:"id"`
	ClientName    string    `json:"clientName"`
	ClientAddress string    `json:"clientAddress"`
	QuotationDate time.Time `json:"quotationDate"`
	QuotationType string    `json:"quotationType"`
	Notes         string    `json:"notes"`
	Subtotal      float64   `json:"subtotal"`
	Discount      float64   `json:"discount"`
	GST           float64   `json:"gst"`
	Total         float64   `json:"total"`
	Items         []QuotationItem `json:"items"`
	CreatedAt     time.Time `json:"createdAt"`
}

// QuotationItem is a single row of a persisted quotation. Position preserves
// document order. Quantity 0 marks a non-billable section header; header rows
// always carry rate 0 and amount 0.
type QuotationItem struct {
	ID          uuid.UUID  `json:"id"`
	QuotationID uuid.UUID  `json:"quotationId"`
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	Position    int        `json:"position"`
	Name        string     `json:"name"`
	Unit        string     `json:"unit"`
	Quantity    float64    `json:"quantity"`
	Rate        float64    `json:"rate"`
	Amount      float64    `json:"amount"`
}

// IsHeader reports whether the row is a non-billable section header.
func (i QuotationItem) IsHeader() bool {
	return i.Quantity == 0
}
