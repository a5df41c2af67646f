package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"despensa/internal/domain"
	"despensa/internal/repository"

	"github.com/google/uuid"
)

// MasterDataService manages the shared catalog collaborators: supermarkets,
// categories and measurement units. Listings mix base records (owner is null)
// with the caller's own; base records and other users' records are read-only.
type MasterDataService interface {
	CreateSupermarket(ctx context.Context, userID uuid.UUID, name, address string) (*domain.Supermarket, error)
	UpdateSupermarket(ctx context.Context, userID, id uuid.UUID, name, address string) (*domain.Supermarket, error)
	DeleteSupermarket(ctx context.Context, userID, id uuid.UUID) error
	ListSupermarkets(ctx context.Context, userID uuid.UUID) ([]*domain.Supermarket, error)

	CreateCategory(ctx context.Context, userID uuid.UUID, name, icon string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, userID, id uuid.UUID, name, icon string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, id uuid.UUID) error
	ListCategories(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)

	CreateUnit(ctx context.Context, userID uuid.UUID, name, abbreviation string) (*domain.Unit, error)
	UpdateUnit(ctx context.Context, userID, id uuid.UUID, name, abbreviation string) (*domain.Unit, error)
	DeleteUnit(ctx context.Context, userID, id uuid.UUID) error
	ListUnits(ctx context.Context, userID uuid.UUID) ([]*domain.Unit, error)
}

type masterDataService struct {
	supermarketRepo repository.SupermarketRepository
	categoryRepo    repository.CategoryRepository
	unitRepo        repository.UnitRepository
}

// NewMasterDataService creates a new instance of MasterDataService
func NewMasterDataService(
	supermarketRepo repository.SupermarketRepository,
	categoryRepo repository.CategoryRepository,
	unitRepo repository.UnitRepository,
) MasterDataService {
	return &masterDataService{
		supermarketRepo: supermarketRepo,
		categoryRepo:    categoryRepo,
		unitRepo:        unitRepo,
	}
}

func (s *masterDataService) CreateSupermarket(ctx context.Context, userID uuid.UUID, name, address string) (*domain.Supermarket, error) {
	now := time.Now()
	supermarket := &domain.Supermarket{
		ID:          uuid.New(),
		OwnerUserID: &userID,
		Name:        name,
		Address:     address,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.supermarketRepo.Create(ctx, supermarket); err != nil {
		return nil, fmt.Errorf("failed to create supermarket: %w", err)
	}
	return supermarket, nil
}

func (s *masterDataService) UpdateSupermarket(ctx context.Context, userID, id uuid.UUID, name, address string) (*domain.Supermarket, error) {
	supermarket, err := s.ownedSupermarket(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	supermarket.Name = name
	supermarket.Address = address
	supermarket.UpdatedAt = time.Now()
	if err := s.supermarketRepo.Update(ctx, supermarket); err != nil {
		return nil, fmt.Errorf("failed to update supermarket: %w", err)
	}
	return supermarket, nil
}

func (s *masterDataService) DeleteSupermarket(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.ownedSupermarket(ctx, userID, id); err != nil {
		return err
	}
	if err := s.supermarketRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete supermarket: %w", err)
	}
	return nil
}

func (s *masterDataService) ListSupermarkets(ctx context.Context, userID uuid.UUID) ([]*domain.Supermarket, error) {
	supermarkets, err := s.supermarketRepo.FindAllBaseAndUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list supermarkets: %w", err)
	}
	return supermarkets, nil
}

func (s *masterDataService) CreateCategory(ctx context.Context, userID uuid.UUID, name, icon string) (*domain.Category, error) {
	now := time.Now()
	category := &domain.Category{
		ID:          uuid.New(),
		OwnerUserID: &userID,
		Name:        name,
		Icon:        icon,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *masterDataService) UpdateCategory(ctx context.Context, userID, id uuid.UUID, name, icon string) (*domain.Category, error) {
	category, err := s.ownedCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.Icon = icon
	category.UpdatedAt = time.Now()
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

func (s *masterDataService) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.ownedCategory(ctx, userID, id); err != nil {
		return err
	}
	if err := s.categoryRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *masterDataService) ListCategories(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.FindAllBaseAndUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *masterDataService) CreateUnit(ctx context.Context, userID uuid.UUID, name, abbreviation string) (*domain.Unit, error) {
	now := time.Now()
	unit := &domain.Unit{
		ID:           uuid.New(),
		OwnerUserID:  &userID,
		Name:         name,
		Abbreviation: abbreviation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}
	return unit, nil
}

func (s *masterDataService) UpdateUnit(ctx context.Context, userID, id uuid.UUID, name, abbreviation string) (*domain.Unit, error) {
	unit, err := s.ownedUnit(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	unit.Name = name
	unit.Abbreviation = abbreviation
	unit.UpdatedAt = time.Now()
	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}
	return unit, nil
}

func (s *masterDataService) DeleteUnit(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.ownedUnit(ctx, userID, id); err != nil {
		return err
	}
	if err := s.unitRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	return nil
}

func (s *masterDataService) ListUnits(ctx context.Context, userID uuid.UUID) ([]*domain.Unit, error) {
	units, err := s.unitRepo.FindAllBaseAndUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

// Base records and records of other users are visible but never editable.
// Missing records surface as NotFound; existing but foreign ones as
// AccessDenied, since listings already reveal they exist.

func (s *masterDataService) ownedSupermarket(ctx context.Context, userID, id uuid.UUID) (*domain.Supermarket, error) {
	supermarket, err := s.supermarketRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSupermarketNotFound) {
			return nil, notFoundf("supermarket %s", id)
		}
		return nil, fmt.Errorf("failed to find supermarket: %w", err)
	}
	if supermarket.IsBase() || *supermarket.OwnerUserID != userID {
		return nil, accessDeniedf("cannot edit base or other user's supermarket")
	}
	return supermarket, nil
}

func (s *masterDataService) ownedCategory(ctx context.Context, userID, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, notFoundf("category %s", id)
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if category.IsBase() || *category.OwnerUserID != userID {
		return nil, accessDeniedf("cannot edit base or other user's category")
	}
	return category, nil
}

func (s *masterDataService) ownedUnit(ctx context.Context, userID, id uuid.UUID) (*domain.Unit, error) {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUnitNotFound) {
			return nil, notFoundf("unit %s", id)
		}
		return nil, fmt.Errorf("failed to find unit: %w", err)
	}
	if unit.IsBase() || *unit.OwnerUserID != userID {
		return nil, accessDeniedf("cannot edit base or other user's unit")
	}
	return unit, nil
}
