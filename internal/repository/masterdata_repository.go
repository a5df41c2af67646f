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
	ErrSupermarketNotFound = errors.New("supermarket not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrUnitNotFound        = errors.New("unit not found")
)

// SupermarketRepository defines the interface for supermarket data access.
// Reads return base records (owner is null) together with the user's own.
type SupermarketRepository interface {
	Create(ctx context.Context, s *domain.Supermarket) error
	Update(ctx context.Context, s *domain.Supermarket) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Supermarket, error)
	FindAllBaseAndUser(ctx context.Context, userID uuid.UUID) ([]*domain.Supermarket, error)
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	FindAllBaseAndUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)
}

// UnitRepository defines the interface for measurement unit data access
type UnitRepository interface {
	Create(ctx context.Context, u *domain.Unit) error
	Update(ctx context.Context, u *domain.Unit) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Unit, error)
	FindAllBaseAndUser(ctx context.Context, userID uuid.UUID) ([]*domain.Unit, error)
}

type supermarketRepository struct {
	db *sql.DB
}

// NewSupermarketRepository creates a new instance of SupermarketRepository
func NewSupermarketRepository(db *sql.DB) SupermarketRepository {
	return &supermarketRepository{db: db}
}

func (r *supermarketRepository) Create(ctx context.Context, s *domain.Supermarket) error {
	query := `
		INSERT INTO supermarkets (id, owner_user_id, name, address, created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, false)
	`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.OwnerUserID, s.Name, s.Address, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create supermarket: %w", err)
	}

	return nil
}

func (r *supermarketRepository) Update(ctx context.Context, s *domain.Supermarket) error {
	query := `
		UPDATE supermarkets
		SET name = $2, address = $3, updated_at = $4
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.Address, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update supermarket: %w", err)
	}

	return requireRow(result, ErrSupermarketNotFound)
}

func (r *supermarketRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE supermarkets SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supermarket: %w", err)
	}

	return requireRow(result, ErrSupermarketNotFound)
}

func (r *supermarketRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Supermarket, error) {
	query := `
		SELECT id, owner_user_id, name, address, created_at, updated_at
		FROM supermarkets
		WHERE id = $1 AND NOT is_deleted
	`

	s := &domain.Supermarket{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.OwnerUserID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSupermarketNotFound
		}
		return nil, fmt.Errorf("failed to find supermarket: %w", err)
	}

	return s, nil
}

func (r *supermarketRepository) FindAllBaseAndUser(ctx context.Context, userID uuid.UUID) ([]*domain.Supermarket, error) {
	query := `
		SELECT id, owner_user_id, name, address, created_at, updated_at
		FROM supermarkets
		WHERE (owner_user_id IS NULL OR owner_user_id = $1) AND NOT is_deleted
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list supermarkets: %w", err)
	}
	defer rows.Close()

	supermarkets := []*domain.Supermarket{}
	for rows.Next() {
		s := &domain.Supermarket{}
		if err := rows.Scan(&s.ID, &s.OwnerUserID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supermarket: %w", err)
		}
		supermarkets = append(supermarkets, s)
	}

	return supermarkets, rows.Err()
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `
		INSERT INTO categories (id, owner_user_id, name, icon, created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, false)
	`

	_, err := r.db.ExecContext(ctx, query, c.ID, c.OwnerUserID, c.Name, c.Icon, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

func (r *categoryRepository) Update(ctx context.Context, c *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $2, icon = $3, updated_at = $4
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Icon, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	return requireRow(result, ErrCategoryNotFound)
}

func (r *categoryRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return requireRow(result, ErrCategoryNotFound)
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `
		SELECT id, owner_user_id, name, icon, created_at, updated_at
		FROM categories
		WHERE id = $1 AND NOT is_deleted
	`

	c := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.OwnerUserID, &c.Name, &c.Icon, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	return c, nil
}

func (r *categoryRepository) FindAllBaseAndUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	query := `
		SELECT id, owner_user_id, name, icon, created_at, updated_at
		FROM categories
		WHERE (owner_user_id IS NULL OR owner_user_id = $1) AND NOT is_deleted
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.OwnerUserID, &c.Name, &c.Icon, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

type unitRepository struct {
	db *sql.DB
}

// NewUnitRepository creates a new instance of UnitRepository
func NewUnitRepository(db *sql.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) Create(ctx context.Context, u *domain.Unit) error {
	query := `
		INSERT INTO units (id, owner_user_id, name, abbreviation, created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, false)
	`

	_, err := r.db.ExecContext(ctx, query, u.ID, u.OwnerUserID, u.Name, u.Abbreviation, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}

	return nil
}

func (r *unitRepository) Update(ctx context.Context, u *domain.Unit) error {
	query := `
		UPDATE units
		SET name = $2, abbreviation = $3, updated_at = $4
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(ctx, query, u.ID, u.Name, u.Abbreviation, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}

	return requireRow(result, ErrUnitNotFound)
}

func (r *unitRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE units SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}

	return requireRow(result, ErrUnitNotFound)
}

func (r *unitRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Unit, error) {
	query := `
		SELECT id, owner_user_id, name, abbreviation, created_at, updated_at
		FROM units
		WHERE id = $1 AND NOT is_deleted
	`

	u := &domain.Unit{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.OwnerUserID, &u.Name, &u.Abbreviation, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to find unit: %w", err)
	}

	return u, nil
}

func (r *unitRepository) FindAllBaseAndUser(ctx context.Context, userID uuid.UUID) ([]*domain.Unit, error) {
	query := `
		SELECT id, owner_user_id, name, abbreviation, created_at, updated_at
		FROM units
		WHERE (owner_user_id IS NULL OR owner_user_id = $1) AND NOT is_deleted
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	units := []*domain.Unit{}
	for rows.Next() {
		u := &domain.Unit{}
		if err := rows.Scan(&u.ID, &u.OwnerUserID, &u.Name, &u.Abbreviation, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, u)
	}

	return units, rows.Err()
}

// requireRow converts a zero-rows-affected result into notFound
func requireRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
