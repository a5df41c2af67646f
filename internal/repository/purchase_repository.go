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
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// PurchaseRepository defines the interface for purchase data access.
//
// Complete persists the completed purchase together with its emitted price
// observations as one atomic write, so a crash can never leave a completed
// purchase without its observations.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	Update(ctx context.Context, purchase *domain.Purchase) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Purchase, error)
	FindCompletedByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Purchase, error)
	FindRecentCompletedBySupermarket(ctx context.Context, ownerID, supermarketID uuid.UUID, limit int) ([]*domain.Purchase, error)
	Complete(ctx context.Context, purchase *domain.Purchase, observations []*domain.PriceObservation) error
}

type purchaseRepository struct {
	db *sql.DB
}

// NewPurchaseRepository creates a new instance of PurchaseRepository
func NewPurchaseRepository(db *sql.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

const purchaseColumns = `id, owner_user_id, supermarket_id, date, currency_code,
	selected_template_ids, status, total_paid, subtotal, discount, tax, created_at, updated_at`

func (r *purchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	templateIDs, err := encodeList(purchase.SelectedTemplateIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO purchases (id, owner_user_id, supermarket_id, date, currency_code,
			selected_template_ids, status, total_paid, subtotal, discount, tax,
			created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, false)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		purchase.ID,
		purchase.OwnerUserID,
		purchase.SupermarketID,
		purchase.Date,
		purchase.CurrencyCode,
		templateIDs,
		purchase.Status,
		purchase.TotalPaid,
		purchase.Subtotal,
		purchase.Discount,
		purchase.Tax,
		purchase.CreatedAt,
		purchase.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	return nil
}

func (r *purchaseRepository) Update(ctx context.Context, purchase *domain.Purchase) error {
	templateIDs, err := encodeList(purchase.SelectedTemplateIDs)
	if err != nil {
		return err
	}

	query := `
		UPDATE purchases
		SET supermarket_id = $2, date = $3, currency_code = $4, selected_template_ids = $5,
			status = $6, total_paid = $7, subtotal = $8, discount = $9, tax = $10, updated_at = $11
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		purchase.ID,
		purchase.SupermarketID,
		purchase.Date,
		purchase.CurrencyCode,
		templateIDs,
		purchase.Status,
		purchase.TotalPaid,
		purchase.Subtotal,
		purchase.Discount,
		purchase.Tax,
		purchase.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}

	return requireRow(result, ErrPurchaseNotFound)
}

func (r *purchaseRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE purchases SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}

	return requireRow(result, ErrPurchaseNotFound)
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1 AND NOT is_deleted`

	purchase, err := scanPurchase(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to find purchase: %w", err)
	}

	return purchase, nil
}

func (r *purchaseRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE owner_user_id = $1 AND NOT is_deleted
		ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	return collectPurchases(rows)
}

func (r *purchaseRepository) FindCompletedByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE owner_user_id = $1 AND status = $2 AND NOT is_deleted
		ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID, domain.PurchaseStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed purchases: %w", err)
	}
	defer rows.Close()

	return collectPurchases(rows)
}

// FindRecentCompletedBySupermarket returns the newest completed purchases at
// one supermarket, most recent first.
func (r *purchaseRepository) FindRecentCompletedBySupermarket(ctx context.Context, ownerID, supermarketID uuid.UUID, limit int) ([]*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE owner_user_id = $1 AND supermarket_id = $2 AND status = $3 AND NOT is_deleted
		ORDER BY date DESC
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, ownerID, supermarketID, domain.PurchaseStatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent purchases: %w", err)
	}
	defer rows.Close()

	return collectPurchases(rows)
}

// Complete writes the purchase transition and its price observations in a
// single transaction.
func (r *purchaseRepository) Complete(ctx context.Context, purchase *domain.Purchase, observations []*domain.PriceObservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE purchases
		SET status = $2, total_paid = $3, subtotal = $4, discount = $5, tax = $6, updated_at = $7
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := tx.ExecContext(ctx, updateQuery,
		purchase.ID, purchase.Status, purchase.TotalPaid, purchase.Subtotal,
		purchase.Discount, purchase.Tax, purchase.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to complete purchase: %w", err)
	}
	if err := requireRow(result, ErrPurchaseNotFound); err != nil {
		return err
	}

	insertQuery := `
		INSERT INTO price_observations (id, owner_user_id, brand_product_id, supermarket_id,
			unit_price, currency_code, observed_at, source_purchase_id, created_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)
	`

	for _, obs := range observations {
		_, err := tx.ExecContext(ctx, insertQuery,
			obs.ID, obs.OwnerUserID, obs.BrandProductID, obs.SupermarketID,
			obs.UnitPrice, obs.CurrencyCode, obs.ObservedAt, obs.SourcePurchaseID, obs.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create price observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit purchase completion: %w", err)
	}

	return nil
}

func scanPurchase(row rowScanner) (*domain.Purchase, error) {
	purchase := &domain.Purchase{}
	var templateIDs []byte

	err := row.Scan(
		&purchase.ID,
		&purchase.OwnerUserID,
		&purchase.SupermarketID,
		&purchase.Date,
		&purchase.CurrencyCode,
		&templateIDs,
		&purchase.Status,
		&purchase.TotalPaid,
		&purchase.Subtotal,
		&purchase.Discount,
		&purchase.Tax,
		&purchase.CreatedAt,
		&purchase.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeList(templateIDs, &purchase.SelectedTemplateIDs); err != nil {
		return nil, err
	}

	return purchase, nil
}

func collectPurchases(rows *sql.Rows) ([]*domain.Purchase, error) {
	purchases := []*domain.Purchase{}
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, purchase)
	}
	return purchases, rows.Err()
}
