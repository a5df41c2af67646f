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
	ErrPriceObservationNotFound = errors.New("price observation not found")
)

// PriceObservationRepository defines the interface for price observation data
// access. Observations are append-only; there is no update method.
type PriceObservationRepository interface {
	Create(ctx context.Context, obs *domain.PriceObservation) error
	FindByBrandProduct(ctx context.Context, ownerID, brandProductID uuid.UUID) ([]*domain.PriceObservation, error)
	FindByBrandProducts(ctx context.Context, ownerID uuid.UUID, brandProductIDs []uuid.UUID) ([]*domain.PriceObservation, error)
	FindBySupermarketAndBrands(ctx context.Context, ownerID, supermarketID uuid.UUID, brandProductIDs []uuid.UUID) ([]*domain.PriceObservation, error)
}

type priceObservationRepository struct {
	db *sql.DB
}

// NewPriceObservationRepository creates a new instance of PriceObservationRepository
func NewPriceObservationRepository(db *sql.DB) PriceObservationRepository {
	return &priceObservationRepository{db: db}
}

const priceObservationColumns = `id, owner_user_id, brand_product_id, supermarket_id,
	unit_price, currency_code, observed_at, source_purchase_id, created_at`

func (r *priceObservationRepository) Create(ctx context.Context, obs *domain.PriceObservation) error {
	query := `
		INSERT INTO price_observations (id, owner_user_id, brand_product_id, supermarket_id,
			unit_price, currency_code, observed_at, source_purchase_id, created_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		obs.ID,
		obs.OwnerUserID,
		obs.BrandProductID,
		obs.SupermarketID,
		obs.UnitPrice,
		obs.CurrencyCode,
		obs.ObservedAt,
		obs.SourcePurchaseID,
		obs.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create price observation: %w", err)
	}

	return nil
}

// FindByBrandProduct returns all observations for a brand product in
// chronological order, oldest first.
func (r *priceObservationRepository) FindByBrandProduct(ctx context.Context, ownerID, brandProductID uuid.UUID) ([]*domain.PriceObservation, error) {
	query := `SELECT ` + priceObservationColumns + `
		FROM price_observations
		WHERE owner_user_id = $1 AND brand_product_id = $2 AND NOT is_deleted
		ORDER BY observed_at ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID, brandProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to find price observations: %w", err)
	}
	defer rows.Close()

	return collectPriceObservations(rows)
}

func (r *priceObservationRepository) FindByBrandProducts(ctx context.Context, ownerID uuid.UUID, brandProductIDs []uuid.UUID) ([]*domain.PriceObservation, error) {
	if len(brandProductIDs) == 0 {
		return []*domain.PriceObservation{}, nil
	}

	query := `SELECT ` + priceObservationColumns + `
		FROM price_observations
		WHERE owner_user_id = $1 AND brand_product_id IN (` + inPlaceholders(len(brandProductIDs), 2) + `)
			AND NOT is_deleted
		ORDER BY observed_at ASC`

	args := append([]any{ownerID}, uuidArgs(brandProductIDs)...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find price observations: %w", err)
	}
	defer rows.Close()

	return collectPriceObservations(rows)
}

func (r *priceObservationRepository) FindBySupermarketAndBrands(ctx context.Context, ownerID, supermarketID uuid.UUID, brandProductIDs []uuid.UUID) ([]*domain.PriceObservation, error) {
	if len(brandProductIDs) == 0 {
		return []*domain.PriceObservation{}, nil
	}

	query := `SELECT ` + priceObservationColumns + `
		FROM price_observations
		WHERE owner_user_id = $1 AND supermarket_id = $2
			AND brand_product_id IN (` + inPlaceholders(len(brandProductIDs), 3) + `)
			AND NOT is_deleted
		ORDER BY observed_at ASC`

	args := append([]any{ownerID, supermarketID}, uuidArgs(brandProductIDs)...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find price observations: %w", err)
	}
	defer rows.Close()

	return collectPriceObservations(rows)
}

func collectPriceObservations(rows *sql.Rows) ([]*domain.PriceObservation, error) {
	observations := []*domain.PriceObservation{}
	for rows.Next() {
		obs := &domain.PriceObservation{}
		err := rows.Scan(
			&obs.ID,
			&obs.OwnerUserID,
			&obs.BrandProductID,
			&obs.SupermarketID,
			&obs.UnitPrice,
			&obs.CurrencyCode,
			&obs.ObservedAt,
			&obs.SourcePurchaseID,
			&obs.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price observation: %w", err)
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}
