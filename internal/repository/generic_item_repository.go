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
	ErrGenericItemNotFound = errors.New("generic item not found")
)

// GenericItemRepository defines the interface for generic item data access
type GenericItemRepository interface {
	Create(ctx context.Context, item *domain.GenericItem) error
	Update(ctx context.Context, item *domain.GenericItem) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.GenericItem, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.GenericItem, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.GenericItem, error)
}

type genericItemRepository struct {
	db *sql.DB
}

// NewGenericItemRepository creates a new instance of GenericItemRepository
func NewGenericItemRepository(db *sql.DB) GenericItemRepository {
	return &genericItemRepository{db: db}
}

const genericItemColumns = `id, owner_user_id, canonical_name, aliases, primary_category_id,
	secondary_category_ids, image_url, global_price, currency_code, last_price_update,
	created_at, updated_at`

func (r *genericItemRepository) Create(ctx context.Context, item *domain.GenericItem) error {
	aliases, err := encodeList(item.Aliases)
	if err != nil {
		return err
	}
	secondaries, err := encodeList(item.SecondaryCategoryIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO generic_items (id, owner_user_id, canonical_name, aliases, primary_category_id,
			secondary_category_ids, image_url, global_price, currency_code, last_price_update,
			created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.OwnerUserID,
		item.CanonicalName,
		aliases,
		item.PrimaryCategoryID,
		secondaries,
		item.ImageURL,
		item.GlobalPrice,
		item.CurrencyCode,
		item.LastPriceUpdate,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create generic item: %w", err)
	}

	return nil
}

func (r *genericItemRepository) Update(ctx context.Context, item *domain.GenericItem) error {
	aliases, err := encodeList(item.Aliases)
	if err != nil {
		return err
	}
	secondaries, err := encodeList(item.SecondaryCategoryIDs)
	if err != nil {
		return err
	}

	query := `
		UPDATE generic_items
		SET canonical_name = $2, aliases = $3, primary_category_id = $4, secondary_category_ids = $5,
			image_url = $6, global_price = $7, currency_code = $8, last_price_update = $9, updated_at = $10
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.CanonicalName,
		aliases,
		item.PrimaryCategoryID,
		secondaries,
		item.ImageURL,
		item.GlobalPrice,
		item.CurrencyCode,
		item.LastPriceUpdate,
		item.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update generic item: %w", err)
	}

	return requireRow(result, ErrGenericItemNotFound)
}

func (r *genericItemRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE generic_items SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("failed to delete generic item: %w", err)
	}

	return requireRow(result, ErrGenericItemNotFound)
}

func (r *genericItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.GenericItem, error) {
	query := `SELECT ` + genericItemColumns + ` FROM generic_items WHERE id = $1 AND NOT is_deleted`

	item, err := scanGenericItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGenericItemNotFound
		}
		return nil, fmt.Errorf("failed to find generic item: %w", err)
	}

	return item, nil
}

func (r *genericItemRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.GenericItem, error) {
	query := `SELECT ` + genericItemColumns + `
		FROM generic_items
		WHERE owner_user_id = $1 AND NOT is_deleted
		ORDER BY canonical_name ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generic items: %w", err)
	}
	defer rows.Close()

	return collectGenericItems(rows)
}

func (r *genericItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.GenericItem, error) {
	if len(ids) == 0 {
		return []*domain.GenericItem{}, nil
	}

	query := `SELECT ` + genericItemColumns + `
		FROM generic_items
		WHERE id IN (` + inPlaceholders(len(ids), 1) + `) AND NOT is_deleted`

	rows, err := r.db.QueryContext(ctx, query, uuidArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to find generic items by ids: %w", err)
	}
	defer rows.Close()

	return collectGenericItems(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGenericItem(row rowScanner) (*domain.GenericItem, error) {
	item := &domain.GenericItem{}
	var aliases, secondaries []byte

	err := row.Scan(
		&item.ID,
		&item.OwnerUserID,
		&item.CanonicalName,
		&aliases,
		&item.PrimaryCategoryID,
		&secondaries,
		&item.ImageURL,
		&item.GlobalPrice,
		&item.CurrencyCode,
		&item.LastPriceUpdate,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeList(aliases, &item.Aliases); err != nil {
		return nil, err
	}
	if err := decodeList(secondaries, &item.SecondaryCategoryIDs); err != nil {
		return nil, err
	}

	return item, nil
}

func collectGenericItems(rows *sql.Rows) ([]*domain.GenericItem, error) {
	items := []*domain.GenericItem{}
	for rows.Next() {
		item, err := scanGenericItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generic item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
