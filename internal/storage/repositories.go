package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

// ProductRepository handles catalog CRUD operations.
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new catalog product.
func (r *ProductRepository) Create(ctx context.Context, product *Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.Category == "" {
		product.Category = CategoryGeneral
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	query := `
		INSERT INTO products (id, name, category, unit, rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Category, product.Unit, product.Rate,
		product.CreatedAt, product.UpdatedAt,
	)
	return err
}

// GetByID retrieves a product by ID.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `
		SELECT id, name, category, unit, rate, created_at, updated_at
		FROM products WHERE id = $1
	`
	product := &Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.Category, &product.Unit, &product.Rate,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return product, err
}

// List retrieves all products in stable insertion order. The matcher relies
// on this ordering for deterministic tie-breaking.
func (r *ProductRepository) List(ctx context.Context) ([]*Product, error) {
	query := `
		SELECT id, name, category, unit, rate, created_at, updated_at
		FROM products
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		product := &Product{}
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Category, &product.Unit, &product.Rate,
			&product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// Update updates an existing product.
func (r *ProductRepository) Update(ctx context.Context, product *Product) error {
	product.UpdatedAt = time.Now()

	query := `
		UPDATE products SET name = $1, category = $2, unit = $3, rate = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		product.Name, product.Category, product.Unit, product.Rate, product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a product from the catalog.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// QuotationRepository handles quotation history operations.
type QuotationRepository struct {
	db DB
}

// NewQuotationRepository creates a new quotation repository.
func NewQuotationRepository(db DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

// Create persists a quotation with its items.
func (r *QuotationRepository) Create(ctx context.Context, q *Quotation) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	q.CreatedAt = time.Now()

	query := `
		INSERT INTO quotations (id, client_name, client_address, quotation_date,
			quotation_type, notes, subtotal, discount, gst, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		q.ID, q.ClientName, q.ClientAddress, q.QuotationDate,
		q.QuotationType, q.Notes, q.Subtotal, q.Discount, q.GST, q.Total, q.CreatedAt,
	)
	if err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO quotation_items (id, quotation_id, product_id, position,
			name, unit, quantity, rate, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for i := range q.Items {
		item := &q.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.QuotationID = q.ID
		item.Position = i

		var productID interface{}
		if item.ProductID != nil {
			productID = *item.ProductID
		}
		if _, err := r.db.ExecContext(ctx, itemQuery,
			item.ID, item.QuotationID, productID, item.Position,
			item.Name, item.Unit, item.Quantity, item.Rate, item.Amount,
		); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a quotation with its items in document order.
func (r *QuotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	query := `
		SELECT id, client_name, client_address, quotation_date, quotation_type,
			notes, subtotal, discount, gst, total, created_at
		FROM quotations WHERE id = $1
	`
	q := &Quotation{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&q.ID, &q.ClientName, &q.ClientAddress, &q.QuotationDate, &q.QuotationType,
		&q.Notes, &q.Subtotal, &q.Discount, &q.GST, &q.Total, &q.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

// List retrieves quotation headers (no items), newest first.
func (r *QuotationRepository) List(ctx context.Context) ([]*Quotation, error) {
	query := `
		SELECT id, client_name, client_address, quotation_date, quotation_type,
			notes, subtotal, discount, gst, total, created_at
		FROM quotations
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotations []*Quotation
	for rows.Next() {
		q := &Quotation{}
		if err := rows.Scan(
			&q.ID, &q.ClientName, &q.ClientAddress, &q.QuotationDate, &q.QuotationType,
			&q.Notes, &q.Subtotal, &q.Discount, &q.GST, &q.Total, &q.CreatedAt,
		); err != nil {
			return nil, err
		}
		quotations = append(quotations, q)
	}
	return quotations, rows.Err()
}

func (r *QuotationRepository) listItems(ctx context.Context, quotationID uuid.UUID) ([]QuotationItem, error) {
	query := `
		SELECT id, quotation_id, product_id, position, name, unit, quantity, rate, amount
		FROM quotation_items
		WHERE quotation_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QuotationItem
	for rows.Next() {
		var item QuotationItem
		var productID sql.NullString
		if err := rows.Scan(
			&item.ID, &item.QuotationID, &productID, &item.Position,
			&item.Name, &item.Unit, &item.Quantity, &item.Rate, &item.Amount,
		); err != nil {
			return nil, err
		}
		if productID.Valid {
			if id, err := uuid.Parse(productID.String); err == nil {
				item.ProductID = &id
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Repositories bundles all repositories together.
type Repositories struct {
	Products   *ProductRepository
	Quotations *QuotationRepository
}

// NewRepositories creates all repositories with the given database connection.
func NewRepositories(db DB) *Repositories {
	return &Repositories{
		Products:   NewProductRepository(db),
		Quotations: NewQuotationRepository(db),
	}
}
