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

// GenericItemInput carries the writable fields of a generic item
type GenericItemInput struct {
	CanonicalName        string
	Aliases              []string
	PrimaryCategoryID    *uuid.UUID
	SecondaryCategoryIDs []uuid.UUID
	ImageURL             string
	GlobalPrice          *float64
}

// BrandProductInput carries the writable fields of a brand product
type BrandProductInput struct {
	Brand        string
	Presentation string
	ImageURL     string
	GlobalPrice  *float64
}

// ProductService manages the user's personal product catalog: generic items
// (commodity classes), their brand products, and manually recorded price
// observations. Everything here is owner-scoped; nothing is shared.
type ProductService interface {
	CreateGenericItem(ctx context.Context, userID uuid.UUID, input GenericItemInput) (*domain.GenericItem, error)
	UpdateGenericItem(ctx context.Context, userID, id uuid.UUID, input GenericItemInput) (*domain.GenericItem, error)
	DeleteGenericItem(ctx context.Context, userID, id uuid.UUID) error
	GetGenericItem(ctx context.Context, userID, id uuid.UUID) (*domain.GenericItem, error)
	ListGenericItems(ctx context.Context, userID uuid.UUID) ([]*domain.GenericItem, error)

	CreateBrandProduct(ctx context.Context, userID, genericItemID uuid.UUID, input BrandProductInput) (*domain.BrandProduct, error)
	UpdateBrandProduct(ctx context.Context, userID, id uuid.UUID, input BrandProductInput) (*domain.BrandProduct, error)
	DeleteBrandProduct(ctx context.Context, userID, id uuid.UUID) error
	ListBrandProducts(ctx context.Context, userID, genericItemID uuid.UUID) ([]*domain.BrandProduct, error)

	RecordPriceObservation(ctx context.Context, userID, brandProductID, supermarketID uuid.UUID, unitPrice *float64, observedAt time.Time) (*domain.PriceObservation, error)
}

type productService struct {
	genericItemRepo  repository.GenericItemRepository
	brandProductRepo repository.BrandProductRepository
	observationRepo  repository.PriceObservationRepository
	supermarketRepo  repository.SupermarketRepository
	defaultCurrency  string
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	genericItemRepo repository.GenericItemRepository,
	brandProductRepo repository.BrandProductRepository,
	observationRepo repository.PriceObservationRepository,
	supermarketRepo repository.SupermarketRepository,
	defaultCurrency string,
) ProductService {
	return &productService{
		genericItemRepo:  genericItemRepo,
		brandProductRepo: brandProductRepo,
		observationRepo:  observationRepo,
		supermarketRepo:  supermarketRepo,
		defaultCurrency:  defaultCurrency,
	}
}

func (s *productService) CreateGenericItem(ctx context.Context, userID uuid.UUID, input GenericItemInput) (*domain.GenericItem, error) {
	now := time.Now()
	item := &domain.GenericItem{
		ID:                   uuid.New(),
		OwnerUserID:          userID,
		CanonicalName:        input.CanonicalName,
		Aliases:              input.Aliases,
		PrimaryCategoryID:    input.PrimaryCategoryID,
		SecondaryCategoryIDs: input.SecondaryCategoryIDs,
		ImageURL:             input.ImageURL,
		GlobalPrice:          input.GlobalPrice,
		CurrencyCode:         s.defaultCurrency,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if input.GlobalPrice != nil {
		item.LastPriceUpdate = &now
	}
	if err := s.genericItemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create generic item: %w", err)
	}
	return item, nil
}

func (s *productService) UpdateGenericItem(ctx context.Context, userID, id uuid.UUID, input GenericItemInput) (*domain.GenericItem, error) {
	item, err := s.ownedGenericItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !floatPtrEqual(item.GlobalPrice, input.GlobalPrice) {
		item.LastPriceUpdate = &now
	}
	item.CanonicalName = input.CanonicalName
	item.Aliases = input.Aliases
	item.PrimaryCategoryID = input.PrimaryCategoryID
	item.SecondaryCategoryIDs = input.SecondaryCategoryIDs
	item.ImageURL = input.ImageURL
	item.GlobalPrice = input.GlobalPrice
	item.UpdatedAt = now

	if err := s.genericItemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update generic item: %w", err)
	}
	return item, nil
}

func (s *productService) DeleteGenericItem(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.ownedGenericItem(ctx, userID, id); err != nil {
		return err
	}
	if err := s.genericItemRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete generic item: %w", err)
	}
	return nil
}

func (s *productService) GetGenericItem(ctx context.Context, userID, id uuid.UUID) (*domain.GenericItem, error) {
	return s.ownedGenericItem(ctx, userID, id)
}

func (s *productService) ListGenericItems(ctx context.Context, userID uuid.UUID) ([]*domain.GenericItem, error) {
	items, err := s.genericItemRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generic items: %w", err)
	}
	return items, nil
}

func (s *productService) CreateBrandProduct(ctx context.Context, userID, genericItemID uuid.UUID, input BrandProductInput) (*domain.BrandProduct, error) {
	if _, err := s.ownedGenericItem(ctx, userID, genericItemID); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.BrandProduct{
		ID:            uuid.New(),
		OwnerUserID:   userID,
		GenericItemID: genericItemID,
		Brand:         input.Brand,
		Presentation:  input.Presentation,
		ImageURL:      input.ImageURL,
		GlobalPrice:   input.GlobalPrice,
		CurrencyCode:  s.defaultCurrency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.brandProductRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create brand product: %w", err)
	}
	return product, nil
}

func (s *productService) UpdateBrandProduct(ctx context.Context, userID, id uuid.UUID, input BrandProductInput) (*domain.BrandProduct, error) {
	product, err := s.ownedBrandProduct(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	product.Brand = input.Brand
	product.Presentation = input.Presentation
	product.ImageURL = input.ImageURL
	product.GlobalPrice = input.GlobalPrice
	product.UpdatedAt = time.Now()

	if err := s.brandProductRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update brand product: %w", err)
	}
	return product, nil
}

func (s *productService) DeleteBrandProduct(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.ownedBrandProduct(ctx, userID, id); err != nil {
		return err
	}
	if err := s.brandProductRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete brand product: %w", err)
	}
	return nil
}

func (s *productService) ListBrandProducts(ctx context.Context, userID, genericItemID uuid.UUID) ([]*domain.BrandProduct, error) {
	if _, err := s.ownedGenericItem(ctx, userID, genericItemID); err != nil {
		return nil, err
	}
	products, err := s.brandProductRepo.FindByGenericItemID(ctx, genericItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand products: %w", err)
	}
	return products, nil
}

// RecordPriceObservation appends a manual observation. A nil unitPrice means
// "seen at this store, price unknown".
func (s *productService) RecordPriceObservation(ctx context.Context, userID, brandProductID, supermarketID uuid.UUID, unitPrice *float64, observedAt time.Time) (*domain.PriceObservation, error) {
	if _, err := s.ownedBrandProduct(ctx, userID, brandProductID); err != nil {
		return nil, err
	}
	if _, err := s.supermarketRepo.FindByID(ctx, supermarketID); err != nil {
		if errors.Is(err, repository.ErrSupermarketNotFound) {
			return nil, notFoundf("supermarket %s", supermarketID)
		}
		return nil, fmt.Errorf("failed to find supermarket: %w", err)
	}

	obs := &domain.PriceObservation{
		ID:             uuid.New(),
		OwnerUserID:    userID,
		BrandProductID: brandProductID,
		SupermarketID:  supermarketID,
		UnitPrice:      unitPrice,
		CurrencyCode:   s.defaultCurrency,
		ObservedAt:     observedAt,
		CreatedAt:      time.Now(),
	}
	if err := s.observationRepo.Create(ctx, obs); err != nil {
		return nil, fmt.Errorf("failed to record price observation: %w", err)
	}
	return obs, nil
}

func (s *productService) ownedGenericItem(ctx context.Context, userID, id uuid.UUID) (*domain.GenericItem, error) {
	item, err := s.genericItemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGenericItemNotFound) {
			return nil, notFoundf("generic item %s", id)
		}
		return nil, fmt.Errorf("failed to find generic item: %w", err)
	}
	if item.OwnerUserID != userID {
		return nil, notFoundf("generic item %s", id)
	}
	return item, nil
}

func (s *productService) ownedBrandProduct(ctx context.Context, userID, id uuid.UUID) (*domain.BrandProduct, error) {
	product, err := s.brandProductRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBrandProductNotFound) {
			return nil, notFoundf("brand product %s", id)
		}
		return nil, fmt.Errorf("failed to find brand product: %w", err)
	}
	if product.OwnerUserID != userID {
		return nil, notFoundf("brand product %s", id)
	}
	return product, nil
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
