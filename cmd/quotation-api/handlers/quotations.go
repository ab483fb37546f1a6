package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cityfire/quotation-engine/internal/export"
	"github.com/cityfire/quotation-engine/internal/observability"
	"github.com/cityfire/quotation-engine/internal/quote"
	"github.com/cityfire/quotation-engine/internal/reconcile"
	"github.com/cityfire/quotation-engine/internal/storage"
)

// QuotationHandler handles quotation assembly, history and export.
type QuotationHandler struct {
	logger     *observability.Logger
	builder    *quote.Builder
	quotations *storage.QuotationRepository
	exporter   *export.ExcelExporter
}

// NewQuotationHandler creates a new quotation handler.
func NewQuotationHandler(logger *observability.Logger, builder *quote.Builder, quotations *storage.QuotationRepository, exporter *export.ExcelExporter) *QuotationHandler {
	return &QuotationHandler{
		logger:     logger,
		builder:    builder,
		quotations: quotations,
		exporter:   exporter,
	}
}

// QuotationItemDTO is one line of a quotation create request.
type QuotationItemDTO struct {
	ProductID string  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	Rate      float64 `json:"rate"`
	Amount    float64 `json:"amount"`
	Header    bool    `json:"header"`
}

// CreateQuotationDTO is the API request to assemble a quotation.
type CreateQuotationDTO struct {
	ClientName    string             `json:"clientName"`
	ClientAddress string             `json:"clientAddress"`
	QuotationDate string             `json:"quotationDate,omitempty"` // YYYY-MM-DD
	QuotationType string             `json:"quotationType,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	ApplyDiscount bool               `json:"applyDiscount"`
	ApplyGST      bool               `json:"applyGst"`
	Items         []QuotationItemDTO `json:"items"`
}

// Create handles POST /quotations.
func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateQuotationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if dto.ClientName == "" {
		writeError(w, http.StatusBadRequest, "clientName is required", "")
		return
	}
	if len(dto.Items) == 0 {
		writeError(w, http.StatusBadRequest, "at least one item is required", "")
		return
	}

	var date time.Time
	if dto.QuotationDate != "" {
		parsed, err := time.Parse("2006-01-02", dto.QuotationDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid quotationDate, expected YYYY-MM-DD", err.Error())
			return
		}
		date = parsed
	}

	items := make([]reconcile.ReconciledItem, 0, len(dto.Items))
	for i, item := range dto.Items {
		if item.Name == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("items[%d]: name is required", i), "")
			return
		}
		rec := reconcile.ReconciledItem{
			Name:     item.Name,
			Unit:     item.Unit,
			Quantity: item.Quantity,
			Rate:     item.Rate,
			Amount:   item.Amount,
			Header:   item.Header || item.Quantity == 0,
		}
		if item.ProductID != "" {
			id, err := uuid.Parse(item.ProductID)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("items[%d]: invalid productId", i), err.Error())
				return
			}
			rec.ProductID = &id
		}
		if rec.Amount == 0 && !rec.Header {
			rec.Amount = rec.Quantity * rec.Rate
		}
		items = append(items, rec)
	}

	q, err := h.builder.Build(r.Context(), quote.BuildRequest{
		ClientName:    dto.ClientName,
		ClientAddress: dto.ClientAddress,
		QuotationDate: date,
		QuotationType: dto.QuotationType,
		Notes:         dto.Notes,
		Items:         items,
		Options: quote.Options{
			ApplyDiscount: dto.ApplyDiscount,
			ApplyGST:      dto.ApplyGST,
		},
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Build quotation failed")
		writeError(w, http.StatusInternalServerError, "build quotation failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// List handles GET /quotations.
func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	quotations, err := h.quotations.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("List quotations failed")
		writeError(w, http.StatusInternalServerError, "list quotations failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"quotations": quotations})
}

// Get handles GET /quotations/{id}.
func (h *QuotationHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Export handles GET /quotations/{id}/export, streaming an xlsx workbook.
func (h *QuotationHandler) Export(w http.ResponseWriter, r *http.Request) {
	q, ok := h.load(w, r)
	if !ok {
		return
	}

	filename := fmt.Sprintf("quotation-%s.xlsx", q.QuotationDate.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.exporter.Export(q, w); err != nil {
		// Headers are already gone; all we can do is log.
		h.logger.Error().Err(err).Msg("Export quotation failed")
	}
}

func (h *QuotationHandler) load(w http.ResponseWriter, r *http.Request) (*storage.Quotation, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quotation id", err.Error())
		return nil, false
	}

	q, err := h.quotations.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "quotation not found", "")
		return nil, false
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Get quotation failed")
		writeError(w, http.StatusInternalServerError, "get quotation failed", err.Error())
		return nil, false
	}
	return q, true
}
