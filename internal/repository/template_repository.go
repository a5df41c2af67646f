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
	ErrTemplateNotFound     = errors.New("template not found")
	ErrTemplateItemNotFound = errors.New("template item not found")
)

// TemplateRepository defines the interface for template data access
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) error
	Update(ctx context.Context, template *domain.Template) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Template, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Template, error)
}

// TemplateItemRepository defines the interface for template item data access.
// FindByTemplateID returns items in sort order.
type TemplateItemRepository interface {
	Create(ctx context.Context, item *domain.TemplateItem) error
	Update(ctx context.Context, item *domain.TemplateItem) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.TemplateItem, error)
	FindByTemplateID(ctx context.Context, templateID uuid.UUID) ([]*domain.TemplateItem, error)
}

type templateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new instance of TemplateRepository
func NewTemplateRepository(db *sql.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, template *domain.Template) error {
	tags, err := encodeList(template.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO templates (id, owner_user_id, name, tags, created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, false)
	`

	_, err = r.db.ExecContext(ctx, query,
		template.ID, template.OwnerUserID, template.Name, tags, template.CreatedAt, template.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

func (r *templateRepository) Update(ctx context.Context, template *domain.Template) error {
	tags, err := encodeList(template.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE templates
		SET name = $2, tags = $3, updated_at = $4
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(ctx, query, template.ID, template.Name, tags, template.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	return requireRow(result, ErrTemplateNotFound)
}

func (r *templateRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE templates SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return requireRow(result, ErrTemplateNotFound)
}

func (r *templateRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	query := `
		SELECT id, owner_user_id, name, tags, created_at, updated_at
		FROM templates
		WHERE id = $1 AND NOT is_deleted
	`

	template := &domain.Template{}
	var tags []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&template.ID, &template.OwnerUserID, &template.Name, &tags,
		&template.CreatedAt, &template.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to find template: %w", err)
	}

	if err := decodeList(tags, &template.Tags); err != nil {
		return nil, err
	}

	return template, nil
}

func (r *templateRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Template, error) {
	query := `
		SELECT id, owner_user_id, name, tags, created_at, updated_at
		FROM templates
		WHERE owner_user_id = $1 AND NOT is_deleted
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []*domain.Template{}
	for rows.Next() {
		template := &domain.Template{}
		var tags []byte
		if err := rows.Scan(&template.ID, &template.OwnerUserID, &template.Name, &tags,
			&template.CreatedAt, &template.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		if err := decodeList(tags, &template.Tags); err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}

	return templates, rows.Err()
}

type templateItemRepository struct {
	db *sql.DB
}

// NewTemplateItemRepository creates a new instance of TemplateItemRepository
func NewTemplateItemRepository(db *sql.DB) TemplateItemRepository {
	return &templateItemRepository{db: db}
}

const templateItemColumns = `id, template_id, generic_item_id, default_qty, default_unit_id,
	sort_order, created_at, updated_at`

func (r *templateItemRepository) Create(ctx context.Context, item *domain.TemplateItem) error {
	query := `
		INSERT INTO template_items (id, template_id, generic_item_id, default_qty, default_unit_id,
			sort_order, created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.TemplateID, item.GenericItemID, item.DefaultQty, item.DefaultUnitID,
		item.SortOrder, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template item: %w", err)
	}

	return nil
}

func (r *templateItemRepository) Update(ctx context.Context, item *domain.TemplateItem) error {
	query := `
		UPDATE template_items
		SET generic_item_id = $2, default_qty = $3, default_unit_id = $4, sort_order = $5, updated_at = $6
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(ctx, query,
		item.ID, item.GenericItemID, item.DefaultQty, item.DefaultUnitID, item.SortOrder, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update template item: %w", err)
	}

	return requireRow(result, ErrTemplateItemNotFound)
}

func (r *templateItemRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE template_items SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template item: %w", err)
	}

	return requireRow(result, ErrTemplateItemNotFound)
}

func (r *templateItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.TemplateItem, error) {
	query := `SELECT ` + templateItemColumns + ` FROM template_items WHERE id = $1 AND NOT is_deleted`

	item := &domain.TemplateItem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.TemplateID, &item.GenericItemID, &item.DefaultQty, &item.DefaultUnitID,
		&item.SortOrder, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTemplateItemNotFound
		}
		return nil, fmt.Errorf("failed to find template item: %w", err)
	}

	return item, nil
}

func (r *templateItemRepository) FindByTemplateID(ctx context.Context, templateID uuid.UUID) ([]*domain.TemplateItem, error) {
	query := `SELECT ` + templateItemColumns + `
		FROM template_items
		WHERE template_id = $1 AND NOT is_deleted
		ORDER BY sort_order ASC`

	rows, err := r.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list template items: %w", err)
	}
	defer rows.Close()

	items := []*domain.TemplateItem{}
	for rows.Next() {
		item := &domain.TemplateItem{}
		if err := rows.Scan(&item.ID, &item.TemplateID, &item.GenericItemID, &item.DefaultQty,
			&item.DefaultUnitID, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
