package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cityfire/quotation-engine/internal/observability"
	"github.com/cityfire/quotation-engine/internal/storage"
)

// Catalog is the product store the reconciler reads and grows. Satisfied by
// storage.ProductRepository.
type Catalog interface {
	List(ctx context.Context) ([]*storage.Product, error)
	Create(ctx context.Context, product *storage.Product) error
}

// ReconciledItem is a catalog-shaped record for one document row: either
// pointing at an existing product, at a freshly minted one, or at nothing
// when the row is a section header.
type ReconciledItem struct {
	ProductID  *uuid.UUID `json:"product_id,omitempty"`
	Name       string     `json:"name"`
	Unit       string     `json:"unit"`
	Quantity   float64    `json:"quantity"`
	Rate       float64    `json:"rate"`
	Amount     float64    `json:"amount"`
	Header     bool       `json:"header"`
	NewProduct bool       `json:"new_product"`
	Score      float64    `json:"score,omitempty"`
}

// Reconciler turns the raw extracted item sequence into catalog-linked line
// items: classify headers, build search context, match against the catalog,
// and mint new products for items nothing matches.
type Reconciler struct {
	classifier *Classifier
	matcher    *Matcher
	catalog    Catalog
	log        *observability.Logger
}

// New creates a reconciler over the given catalog.
func New(classifier *Classifier, matcher *Matcher, catalog Catalog, log *observability.Logger) *Reconciler {
	return &Reconciler{
		classifier: classifier,
		matcher:    matcher,
		catalog:    catalog,
		log:        log,
	}
}

// Reconcile processes items in document order and returns results in the
// same order. Headers pass through with zero quantity, rate and amount and
// no catalog link. Matching never fails the call: an unmatched billable
// item becomes a new catalog product carrying the extracted name, unit and
// rate. The only errors are catalog I/O errors.
func (r *Reconciler) Reconcile(ctx context.Context, items []LineItem) ([]ReconciledItem, error) {
	products, err := r.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	classified := r.classifier.Classify(items)
	out := make([]ReconciledItem, 0, len(classified))
	for _, item := range classified {
		if item.Header {
			out = append(out, ReconciledItem{
				Name:   item.Name,
				Unit:   item.Unit,
				Header: true,
			})
			continue
		}

		result := r.matcher.Match(item.Context, products)
		if result.Found {
			unit := item.Unit
			if unit == "" {
				unit = result.Product.Unit
			}
			// Extracted rate wins when the document states one; the
			// catalog is the fallback price source, never the override.
			rate := item.Rate
			if rate <= 0 {
				rate = result.Product.Rate
			}
			id := result.Product.ID
			out = append(out, ReconciledItem{
				ProductID: &id,
				Name:      item.Name,
				Unit:      unit,
				Quantity:  item.Quantity,
				Rate:      rate,
				Amount:    item.Quantity * rate,
				Score:     result.Score,
			})
			r.log.Debug().
				Str("search", item.Context).
				Str("matched", result.Product.Name).
				Float64("score", result.Score).
				Msg("catalog match")
			continue
		}

		product := &storage.Product{
			Name:     item.Name,
			Category: storage.CategoryGeneral,
			Unit:     item.Unit,
			Rate:     item.Rate,
		}
		if err := r.catalog.Create(ctx, product); err != nil {
			return nil, fmt.Errorf("create catalog product: %w", err)
		}
		products = append(products, product)
		id := product.ID
		out = append(out, ReconciledItem{
			ProductID:  &id,
			Name:       item.Name,
			Unit:       item.Unit,
			Quantity:   item.Quantity,
			Rate:       item.Rate,
			Amount:     item.Quantity * item.Rate,
			NewProduct: true,
		})
		r.log.Info().
			Str("name", item.Name).
			Float64("rate", item.Rate).
			Msg("unmatched item added to catalog")
	}
	return out, nil
}
