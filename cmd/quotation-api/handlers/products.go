package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cityfire/quotation-engine/internal/observability"
	"github.com/cityfire/quotation-engine/internal/storage"
)

// ProductHandler handles catalog CRUD requests.
type ProductHandler struct {
	logger   *observability.Logger
	products *storage.ProductRepository
}

// NewProductHandler creates a new product handler.
func NewProductHandler(logger *observability.Logger, products *storage.ProductRepository) *ProductHandler {
	return &ProductHandler{logger: logger, products: products}
}

// ProductDTO is the API representation of a catalog product.
type ProductDTO struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Unit     string  `json:"unit"`
	Rate     float64 `json:"rate"`
}

// List handles GET /products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("List products failed")
		writeError(w, http.StatusInternalServerError, "list products failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// Get handles GET /products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id", err.Error())
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Get product failed")
		writeError(w, http.StatusInternalServerError, "get product failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto ProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if dto.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", "")
		return
	}
	if dto.Rate < 0 {
		writeError(w, http.StatusBadRequest, "rate must be non-negative", "")
		return
	}
	category := storage.Category(dto.Category)
	if dto.Category != "" && !storage.ValidCategory(category) {
		writeError(w, http.StatusBadRequest, "invalid category", dto.Category)
		return
	}

	product := &storage.Product{
		Name:     dto.Name,
		Category: category,
		Unit:     dto.Unit,
		Rate:     dto.Rate,
	}
	if err := h.products.Create(r.Context(), product); err != nil {
		h.logger.Error().Err(err).Msg("Create product failed")
		writeError(w, http.StatusInternalServerError, "create product failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id", err.Error())
		return
	}

	var dto ProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if dto.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", "")
		return
	}
	if dto.Rate < 0 {
		writeError(w, http.StatusBadRequest, "rate must be non-negative", "")
		return
	}
	category := storage.Category(dto.Category)
	if dto.Category != "" && !storage.ValidCategory(category) {
		writeError(w, http.StatusBadRequest, "invalid category", dto.Category)
		return
	}

	product := &storage.Product{
		ID:       id,
		Name:     dto.Name,
		Category: category,
		Unit:     dto.Unit,
		Rate:     dto.Rate,
	}
	err = h.products.Update(r.Context(), product)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Update product failed")
		writeError(w, http.StatusInternalServerError, "update product failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id", err.Error())
		return
	}

	err = h.products.Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Delete product failed")
		writeError(w, http.StatusInternalServerError, "delete product failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
