package service

import (
	"context"
	"testing"
	"time"

	"despensa/internal/domain"
	"despensa/internal/repository/memory"

	"github.com/google/uuid"
)

// Shared fixtures for the service tests. The in-memory store implements every
// repository interface, so services run against it unchanged.

const testCurrency = "MXN"

func floatPtr(v float64) *float64 { return &v }

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

type fixture struct {
	store  *memory.Store
	userID uuid.UUID
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		store:  memory.NewStore(),
		userID: uuid.New(),
		ctx:    context.Background(),
	}
}

func (f *fixture) seedSupermarket(t *testing.T, owner *uuid.UUID, name string) *domain.Supermarket {
	t.Helper()
	now := time.Now().UTC()
	s := &domain.Supermarket{
		ID:          uuid.New(),
		OwnerUserID: owner,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.store.Supermarkets().Create(f.ctx, s); err != nil {
		t.Fatalf("seed supermarket: %v", err)
	}
	return s
}

func (f *fixture) seedCategory(t *testing.T, owner *uuid.UUID, name string) *domain.Category {
	t.Helper()
	now := time.Now().UTC()
	c := &domain.Category{
		ID:          uuid.New(),
		OwnerUserID: owner,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.store.Categories().Create(f.ctx, c); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

func (f *fixture) seedUnit(t *testing.T, owner *uuid.UUID, name, abbreviation string) *domain.Unit {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.Unit{
		ID:           uuid.New(),
		OwnerUserID:  owner,
		Name:         name,
		Abbreviation: abbreviation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.store.Units().Create(f.ctx, u); err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	return u
}

func (f *fixture) seedGenericItem(t *testing.T, owner uuid.UUID, name string, categoryID *uuid.UUID, globalPrice *float64) *domain.GenericItem {
	t.Helper()
	now := time.Now().UTC()
	g := &domain.GenericItem{
		ID:                uuid.New(),
		OwnerUserID:       owner,
		CanonicalName:     name,
		PrimaryCategoryID: categoryID,
		GlobalPrice:       globalPrice,
		CurrencyCode:      testCurrency,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := f.store.GenericItems().Create(f.ctx, g); err != nil {
		t.Fatalf("seed generic item: %v", err)
	}
	return g
}

func (f *fixture) seedBrandProduct(t *testing.T, owner, genericItemID uuid.UUID, brand, presentation string, globalPrice *float64) *domain.BrandProduct {
	t.Helper()
	now := time.Now().UTC()
	b := &domain.BrandProduct{
		ID:            uuid.New(),
		OwnerUserID:   owner,
		GenericItemID: genericItemID,
		Brand:         brand,
		Presentation:  presentation,
		GlobalPrice:   globalPrice,
		CurrencyCode:  testCurrency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.store.BrandProducts().Create(f.ctx, b); err != nil {
		t.Fatalf("seed brand product: %v", err)
	}
	return b
}

func (f *fixture) seedTemplate(t *testing.T, owner uuid.UUID, name string) *domain.Template {
	t.Helper()
	now := time.Now().UTC()
	tpl := &domain.Template{
		ID:          uuid.New(),
		OwnerUserID: owner,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.store.Templates().Create(f.ctx, tpl); err != nil {
		t.Fatalf("seed template: %v", err)
	}
	return tpl
}

func (f *fixture) seedTemplateItem(t *testing.T, templateID, genericItemID uuid.UUID, qty *float64, unitID *uuid.UUID, sortOrder int) *domain.TemplateItem {
	t.Helper()
	now := time.Now().UTC()
	item := &domain.TemplateItem{
		ID:            uuid.New(),
		TemplateID:    templateID,
		GenericItemID: genericItemID,
		DefaultQty:    qty,
		DefaultUnitID: unitID,
		SortOrder:     sortOrder,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.store.TemplateItems().Create(f.ctx, item); err != nil {
		t.Fatalf("seed template item: %v", err)
	}
	return item
}

func (f *fixture) seedCompletedPurchase(t *testing.T, owner uuid.UUID, supermarketID *uuid.UUID, date time.Time, totalPaid *float64) *domain.Purchase {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Purchase{
		ID:            uuid.New(),
		OwnerUserID:   owner,
		SupermarketID: supermarketID,
		Date:          date,
		CurrencyCode:  testCurrency,
		Status:        domain.PurchaseStatusCompleted,
		TotalPaid:     totalPaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.store.Purchases().Create(f.ctx, p); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
	return p
}

func (f *fixture) seedPurchaseLine(t *testing.T, purchaseID, genericItemID uuid.UUID, brandProductID *uuid.UUID, qty, unitPrice *float64) *domain.PurchaseLine {
	t.Helper()
	now := time.Now().UTC()
	line := &domain.PurchaseLine{
		ID:             uuid.New(),
		PurchaseID:     purchaseID,
		GenericItemID:  genericItemID,
		BrandProductID: brandProductID,
		Qty:            qty,
		UnitPrice:      unitPrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := f.store.PurchaseLines().Create(f.ctx, line); err != nil {
		t.Fatalf("seed purchase line: %v", err)
	}
	return line
}

func (f *fixture) seedObservation(t *testing.T, owner, brandProductID, supermarketID uuid.UUID, unitPrice *float64, observedAt time.Time) *domain.PriceObservation {
	t.Helper()
	obs := &domain.PriceObservation{
		ID:             uuid.New(),
		OwnerUserID:    owner,
		BrandProductID: brandProductID,
		SupermarketID:  supermarketID,
		UnitPrice:      unitPrice,
		CurrencyCode:   testCurrency,
		ObservedAt:     observedAt,
		CreatedAt:      time.Now().UTC(),
	}
	if err := f.store.PriceObservations().Create(f.ctx, obs); err != nil {
		t.Fatalf("seed price observation: %v", err)
	}
	return obs
}

func (f *fixture) purchaseService() PurchaseService {
	return NewPurchaseService(
		f.store.Purchases(),
		f.store.PurchaseLines(),
		f.store.Templates(),
		f.store.TemplateItems(),
		f.store.GenericItems(),
		f.store.BrandProducts(),
		f.store.PriceObservations(),
		testCurrency,
	)
}

func (f *fixture) analyticsService() AnalyticsService {
	return NewAnalyticsService(
		f.store.Purchases(),
		f.store.PurchaseLines(),
		f.store.GenericItems(),
		f.store.BrandProducts(),
		f.store.Categories(),
		f.store.PriceObservations(),
	)
}

func (f *fixture) masterDataService() MasterDataService {
	return NewMasterDataService(
		f.store.Supermarkets(),
		f.store.Categories(),
		f.store.Units(),
	)
}

func (f *fixture) productService() ProductService {
	return NewProductService(
		f.store.GenericItems(),
		f.store.BrandProducts(),
		f.store.PriceObservations(),
		f.store.Supermarkets(),
		testCurrency,
	)
}

func (f *fixture) templateService() TemplateService {
	return NewTemplateService(
		f.store.Templates(),
		f.store.TemplateItems(),
	)
}
