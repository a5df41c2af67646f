package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"despensa/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrBrandProductNotFound = errors.New("brand product not found")
)

// BrandProductRepository defines the interface for brand product data access
type BrandProductRepository interface {
	Create(ctx context.Context, product *domain.BrandProduct) error
	Update(ctx context.Context, product *domain.BrandProduct) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.BrandProduct, error)
	FindByGenericItemID(ctx context.Context, genericItemID uuid.UUID) ([]*domain.BrandProduct, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.BrandProduct, error)
}

type brandProductRepository struct {
	db *sql.DB
}

// NewBrandProductRepository creates a new instance of BrandProductRepository
func NewBrandProductRepository(db *sql.DB) BrandProductRepository {
	return &brandProductRepository{db: db}
}

const brandProductColumns = `id, owner_user_id, generic_item_id, brand, presentation,
	image_url, global_price, currency_code, created_at, updated_at`

func (r *brandProductRepository) Create(ctx context.Context, product *domain.BrandProduct) error {
	query := `
		INSERT INTO brand_products (id, owner_user_id, generic_item_id, brand, presentation,
			image_url, global_price, currency_code, created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.OwnerUserID,
		product.GenericItemID,
		product.Brand,
		product.Presentation,
		product.ImageURL,
		product.GlobalPrice,
		product.CurrencyCode,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create brand product: %w", err)
	}

	return nil
}

func (r *brandProductRepository) Update(ctx context.Context, product *domain.BrandProduct) error {
	query := `
		UPDATE brand_products
		SET brand = $2, presentation = $3, image_url = $4, global_price = $5,
			currency_code = $6, updated_at = $7
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Brand,
		product.Presentation,
		product.ImageURL,
		product.GlobalPrice,
		product.CurrencyCode,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update brand product: %w", err)
	}

	return requireRow(result, ErrBrandProductNotFound)
}

func (r *brandProductRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE brand_products SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand product: %w", err)
	}

	return requireRow(result, ErrBrandProductNotFound)
}

func (r *brandProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.BrandProduct, error) {
	query := `SELECT ` + brandProductColumns + ` FROM brand_products WHERE id = $1 AND NOT is_deleted`

	product := &domain.BrandProduct{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.OwnerUserID,
		&product.GenericItemID,
		&product.Brand,
		&product.Presentation,
		&product.ImageURL,
		&product.GlobalPrice,
		&product.CurrencyCode,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBrandProductNotFound
		}
		return nil, fmt.Errorf("failed to find brand product: %w", err)
	}

	return product, nil
}

func (r *brandProductRepository) FindByGenericItemID(ctx context.Context, genericItemID uuid.UUID) ([]*domain.BrandProduct, error) {
	query := `SELECT ` + brandProductColumns + `
		FROM brand_products
		WHERE generic_item_id = $1 AND NOT is_deleted
		ORDER BY brand ASC, presentation ASC`

	rows, err := r.db.QueryContext(ctx, query, genericItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand products: %w", err)
	}
	defer rows.Close()

	return collectBrandProducts(rows)
}

func (r *brandProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.BrandProduct, error) {
	if len(ids) == 0 {
		return []*domain.BrandProduct{}, nil
	}

	query := `SELECT ` + brandProductColumns + `
		FROM brand_products
		WHERE id IN (` + inPlaceholders(len(ids), 1) + `) AND NOT is_deleted`

	rows, err := r.db.QueryContext(ctx, query, uuidArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to find brand products by ids: %w", err)
	}
	defer rows.Close()

	return collectBrandProducts(rows)
}

func collectBrandProducts(rows *sql.Rows) ([]*domain.BrandProduct, error) {
	products := []*domain.BrandProduct{}
	for rows.Next() {
		product := &domain.BrandProduct{}
		err := rows.Scan(
			&product.ID,
			&product.OwnerUserID,
			&product.GenericItemID,
			&product.Brand,
			&product.Presentation,
			&product.ImageURL,
			&product.GlobalPrice,
			&product.CurrencyCode,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}
