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
	ErrPurchaseLineNotFound = errors.New("purchase line not found")
)

// PurchaseLineRepository defines the interface for purchase line data access
type PurchaseLineRepository interface {
	Create(ctx context.Context, line *domain.PurchaseLine) error
	CreateBatch(ctx context.Context, lines []*domain.PurchaseLine) error
	Update(ctx context.Context, line *domain.PurchaseLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseLine, error)
	FindByPurchaseID(ctx context.Context, purchaseID uuid.UUID) ([]*domain.PurchaseLine, error)
	FindByPurchaseIDs(ctx context.Context, purchaseIDs []uuid.UUID) ([]*domain.PurchaseLine, error)
	SoftDeleteByPurchaseID(ctx context.Context, purchaseID uuid.UUID) error
}

type purchaseLineRepository struct {
	db *sql.DB
}

// NewPurchaseLineRepository creates a new instance of PurchaseLineRepository
func NewPurchaseLineRepository(db *sql.DB) PurchaseLineRepository {
	return &purchaseLineRepository{db: db}
}

const purchaseLineColumns = `id, purchase_id, generic_item_id, brand_product_id, qty, unit_id,
	unit_price, checked, line_amount_override, note, created_at, updated_at`

const purchaseLineInsert = `
	INSERT INTO purchase_lines (id, purchase_id, generic_item_id, brand_product_id, qty, unit_id,
		unit_price, checked, line_amount_override, note, created_at, updated_at, is_deleted)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false)
`

func (r *purchaseLineRepository) Create(ctx context.Context, line *domain.PurchaseLine) error {
	_, err := r.db.ExecContext(ctx, purchaseLineInsert, lineArgs(line)...)
	if err != nil {
		return fmt.Errorf("failed to create purchase line: %w", err)
	}

	return nil
}

// CreateBatch inserts all lines within one transaction
func (r *purchaseLineRepository) CreateBatch(ctx context.Context, lines []*domain.PurchaseLine) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, line := range lines {
		if _, err := tx.ExecContext(ctx, purchaseLineInsert, lineArgs(line)...); err != nil {
			return fmt.Errorf("failed to create purchase line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit purchase lines: %w", err)
	}

	return nil
}

func (r *purchaseLineRepository) Update(ctx context.Context, line *domain.PurchaseLine) error {
	query := `
		UPDATE purchase_lines
		SET brand_product_id = $2, qty = $3, unit_id = $4, unit_price = $5, checked = $6,
			line_amount_override = $7, note = $8, updated_at = $9
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(ctx, query,
		line.ID, line.BrandProductID, line.Qty, line.UnitID, line.UnitPrice,
		line.Checked, line.LineAmountOverride, line.Note, line.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update purchase line: %w", err)
	}

	return requireRow(result, ErrPurchaseLineNotFound)
}

func (r *purchaseLineRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseLine, error) {
	query := `SELECT ` + purchaseLineColumns + ` FROM purchase_lines WHERE id = $1 AND NOT is_deleted`

	line := &domain.PurchaseLine{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&line.ID, &line.PurchaseID, &line.GenericItemID, &line.BrandProductID, &line.Qty,
		&line.UnitID, &line.UnitPrice, &line.Checked, &line.LineAmountOverride, &line.Note,
		&line.CreatedAt, &line.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPurchaseLineNotFound
		}
		return nil, fmt.Errorf("failed to find purchase line: %w", err)
	}

	return line, nil
}

func (r *purchaseLineRepository) FindByPurchaseID(ctx context.Context, purchaseID uuid.UUID) ([]*domain.PurchaseLine, error) {
	query := `SELECT ` + purchaseLineColumns + `
		FROM purchase_lines
		WHERE purchase_id = $1 AND NOT is_deleted
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase lines: %w", err)
	}
	defer rows.Close()

	return collectPurchaseLines(rows)
}

func (r *purchaseLineRepository) FindByPurchaseIDs(ctx context.Context, purchaseIDs []uuid.UUID) ([]*domain.PurchaseLine, error) {
	if len(purchaseIDs) == 0 {
		return []*domain.PurchaseLine{}, nil
	}

	query := `SELECT ` + purchaseLineColumns + `
		FROM purchase_lines
		WHERE purchase_id IN (` + inPlaceholders(len(purchaseIDs), 1) + `) AND NOT is_deleted
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, uuidArgs(purchaseIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase lines: %w", err)
	}
	defer rows.Close()

	return collectPurchaseLines(rows)
}

func (r *purchaseLineRepository) SoftDeleteByPurchaseID(ctx context.Context, purchaseID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE purchase_lines SET is_deleted = true, updated_at = now() WHERE purchase_id = $1 AND NOT is_deleted`,
		purchaseID)
	if err != nil {
		return fmt.Errorf("failed to delete purchase lines: %w", err)
	}

	return nil
}

func lineArgs(line *domain.PurchaseLine) []any {
	return []any{
		line.ID, line.PurchaseID, line.GenericItemID, line.BrandProductID, line.Qty,
		line.UnitID, line.UnitPrice, line.Checked, line.LineAmountOverride, line.Note,
		line.CreatedAt, line.UpdatedAt,
	}
}

func collectPurchaseLines(rows *sql.Rows) ([]*domain.PurchaseLine, error) {
	lines := []*domain.PurchaseLine{}
	for rows.Next() {
		line := &domain.PurchaseLine{}
		err := rows.Scan(
			&line.ID, &line.PurchaseID, &line.GenericItemID, &line.BrandProductID, &line.Qty,
			&line.UnitID, &line.UnitPrice, &line.Checked, &line.LineAmountOverride, &line.Note,
			&line.CreatedAt, &line.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
