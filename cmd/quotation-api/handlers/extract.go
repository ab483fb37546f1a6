package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cityfire/quotation-engine/internal/extract"
	"github.com/cityfire/quotation-engine/internal/observability"
	"github.com/cityfire/quotation-engine/internal/reconcile"
)

// ExtractHandler turns uploaded quotation documents into reconciled line
// items.
type ExtractHandler struct {
	logger     *observability.Logger
	extractor  *extract.DocumentExtractor
	reconciler *reconcile.Reconciler
	maxUpload  int64
}

// NewExtractHandler creates a new extraction handler.
func NewExtractHandler(logger *observability.Logger, extractor *extract.DocumentExtractor, reconciler *reconcile.Reconciler, maxUpload int64) *ExtractHandler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &ExtractHandler{
		logger:     logger,
		extractor:  extractor,
		reconciler: reconciler,
		maxUpload:  maxUpload,
	}
}

// ExtractResponseDTO is the API response for document extraction.
type ExtractResponseDTO struct {
	ClientName    string                     `json:"clientName"`
	ClientAddress string                     `json:"clientAddress"`
	QuotationDate string                     `json:"quotationDate"`
	Items         []reconcile.ReconciledItem `json:"items"`
	Notes         string                     `json:"notes"`
	NewProducts   int                        `json:"newProducts"`
}

// Extract handles POST /api/v1/extract. The document arrives as a
// multipart upload under the "document" field.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.WithContext(ctx).WithOperation("extract")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload", err.Error())
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "document file is required", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload", err.Error())
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	start := time.Now()
	doc, err := h.extractor.Extract(ctx, extract.Document{MIMEType: mimeType, Data: data})
	if err != nil {
		h.writeExtractionError(log, w, err)
		return
	}

	items, err := h.reconciler.Reconcile(ctx, doc.Items)
	if err != nil {
		log.Error().Err(err).Msg("Reconciliation failed")
		writeError(w, http.StatusInternalServerError, "reconciliation failed", err.Error())
		return
	}

	newProducts := 0
	for _, item := range items {
		if item.NewProduct {
			newProducts++
		}
	}

	log.Info().
		Int("items", len(items)).
		Int("new_products", newProducts).
		Dur("elapsed", time.Since(start)).
		Msg("Document extracted")

	writeJSON(w, http.StatusOK, ExtractResponseDTO{
		ClientName:    doc.ClientName,
		ClientAddress: doc.ClientAddress,
		QuotationDate: doc.QuotationDate,
		Items:         items,
		Notes:         doc.Notes,
		NewProducts:   newProducts,
	})
}

func (h *ExtractHandler) writeExtractionError(log *observability.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, extract.ErrMalformedResponse):
		log.Warn().Err(err).Msg("Oracle returned unusable output")
		writeError(w, http.StatusBadGateway, "could not parse extraction result", err.Error())
	case errors.Is(err, extract.ErrOracleUnavailable):
		log.Error().Err(err).Msg("Extraction oracle unavailable")
		writeError(w, http.StatusServiceUnavailable, "extraction service unavailable", err.Error())
	default:
		log.Error().Err(err).Msg("Extraction failed")
		writeError(w, http.StatusInternalServerError, "extraction failed", err.Error())
	}
}
