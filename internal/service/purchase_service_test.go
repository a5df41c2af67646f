package service

import (
	"errors"
	"testing"
	"time"

	"despensa/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func (f *fixture) seedDraftPurchase(t *testing.T, owner uuid.UUID, supermarketID *uuid.UUID) *domain.Purchase {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Purchase{
		ID:            uuid.New(),
		OwnerUserID:   owner,
		SupermarketID: supermarketID,
		Date:          now,
		CurrencyCode:  testCurrency,
		Status:        domain.PurchaseStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.store.Purchases().Create(f.ctx, p); err != nil {
		t.Fatalf("seed draft purchase: %v", err)
	}
	return p
}

func TestCreatePurchaseConsolidatesTemplateItems(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	milk := f.seedGenericItem(t, f.userID, "Leche", nil, nil)
	bread := f.seedGenericItem(t, f.userID, "Pan", nil, nil)
	eggs := f.seedGenericItem(t, f.userID, "Huevos", nil, nil)

	weekly := f.seedTemplate(t, f.userID, "Semanal")
	f.seedTemplateItem(t, weekly.ID, milk.ID, floatPtr(2), nil, 0)
	f.seedTemplateItem(t, weekly.ID, bread.ID, floatPtr(1), nil, 1)

	breakfast := f.seedTemplate(t, f.userID, "Desayuno")
	f.seedTemplateItem(t, breakfast.ID, milk.ID, floatPtr(5), nil, 0)
	f.seedTemplateItem(t, breakfast.ID, eggs.ID, floatPtr(12), nil, 1)

	purchase, err := svc.CreatePurchase(f.ctx, f.userID, nil, time.Now().UTC(), []uuid.UUID{weekly.ID, breakfast.ID})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	lines, err := svc.GetPurchaseLines(f.ctx, f.userID, purchase.ID)
	if err != nil {
		t.Fatalf("GetPurchaseLines: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 consolidated lines, got %d", len(lines))
	}

	// First occurrence wins: milk keeps qty 2 from the first template, never 5
	// and never a sum.
	byGeneric := make(map[uuid.UUID]*domain.PurchaseLine)
	for _, line := range lines {
		byGeneric[line.GenericItemID] = line
	}
	milkLine := byGeneric[milk.ID]
	if milkLine == nil {
		t.Fatal("missing milk line")
	}
	if milkLine.Qty == nil || *milkLine.Qty != 2 {
		t.Errorf("milk qty = %v, want 2", milkLine.Qty)
	}

	// Template order then item order.
	if lines[0].GenericItemID != milk.ID || lines[1].GenericItemID != bread.ID || lines[2].GenericItemID != eggs.ID {
		t.Errorf("unexpected line order: %v, %v, %v", lines[0].GenericItemID, lines[1].GenericItemID, lines[2].GenericItemID)
	}
}

func TestCreatePurchaseRejectsForeignTemplate(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	other := uuid.New()
	foreign := f.seedTemplate(t, other, "Ajena")

	_, err := svc.CreatePurchase(f.ctx, f.userID, nil, time.Now().UTC(), []uuid.UUID{foreign.ID})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign template, got %v", err)
	}
}

func TestCreatePurchaseRecommendsBrandFromRecentPurchase(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	market := f.seedSupermarket(t, nil, "Soriana")
	milk := f.seedGenericItem(t, f.userID, "Leche", nil, floatPtr(30))
	lala := f.seedBrandProduct(t, f.userID, milk.ID, "Lala", "1L", floatPtr(28))
	f.seedBrandProduct(t, f.userID, milk.ID, "Alpura", "1L", floatPtr(27))

	// The user bought Lala here last week; the recommendation should follow.
	past := f.seedCompletedPurchase(t, f.userID, uuidPtr(market.ID), time.Now().UTC().AddDate(0, 0, -7), floatPtr(100))
	f.seedPurchaseLine(t, past.ID, milk.ID, uuidPtr(lala.ID), floatPtr(1), floatPtr(25.50))
	f.seedObservation(t, f.userID, lala.ID, market.ID, floatPtr(25.50), past.Date)

	tpl := f.seedTemplate(t, f.userID, "Semanal")
	f.seedTemplateItem(t, tpl.ID, milk.ID, floatPtr(2), nil, 0)

	purchase, err := svc.CreatePurchase(f.ctx, f.userID, uuidPtr(market.ID), time.Now().UTC(), []uuid.UUID{tpl.ID})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	lines, err := svc.GetPurchaseLines(f.ctx, f.userID, purchase.ID)
	if err != nil {
		t.Fatalf("GetPurchaseLines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].BrandProductID == nil || *lines[0].BrandProductID != lala.ID {
		t.Errorf("recommended brand = %v, want %v", lines[0].BrandProductID, lala.ID)
	}
	if lines[0].UnitPrice == nil || *lines[0].UnitPrice != 25.50 {
		t.Errorf("recommended price = %v, want 25.50", lines[0].UnitPrice)
	}
}

func TestCreatePurchaseBrandFallsBackToLatestObservation(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	market := f.seedSupermarket(t, nil, "Chedraui")
	milk := f.seedGenericItem(t, f.userID, "Leche", nil, floatPtr(30))
	lala := f.seedBrandProduct(t, f.userID, milk.ID, "Lala", "1L", floatPtr(28))
	alpura := f.seedBrandProduct(t, f.userID, milk.ID, "Alpura", "1L", floatPtr(27))

	// No past purchases at this store. The newest observation points at
	// Alpura, even though it carries no price; the price then falls back to
	// Alpura's global price.
	f.seedObservation(t, f.userID, lala.ID, market.ID, floatPtr(26), time.Now().UTC().AddDate(0, 0, -10))
	f.seedObservation(t, f.userID, alpura.ID, market.ID, nil, time.Now().UTC().AddDate(0, 0, -1))

	tpl := f.seedTemplate(t, f.userID, "Semanal")
	f.seedTemplateItem(t, tpl.ID, milk.ID, floatPtr(1), nil, 0)

	purchase, err := svc.CreatePurchase(f.ctx, f.userID, uuidPtr(market.ID), time.Now().UTC(), []uuid.UUID{tpl.ID})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	lines, err := svc.GetPurchaseLines(f.ctx, f.userID, purchase.ID)
	if err != nil {
		t.Fatalf("GetPurchaseLines: %v", err)
	}
	if lines[0].BrandProductID == nil || *lines[0].BrandProductID != alpura.ID {
		t.Errorf("recommended brand = %v, want %v", lines[0].BrandProductID, alpura.ID)
	}
	if lines[0].UnitPrice == nil || *lines[0].UnitPrice != 27 {
		t.Errorf("recommended price = %v, want Alpura global 27", lines[0].UnitPrice)
	}
}

func TestCreatePurchasePriceFallsBackToGenericGlobalPrice(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	market := f.seedSupermarket(t, nil, "Walmart")
	rice := f.seedGenericItem(t, f.userID, "Arroz", nil, floatPtr(22))

	tpl := f.seedTemplate(t, f.userID, "Despensa")
	f.seedTemplateItem(t, tpl.ID, rice.ID, floatPtr(1), nil, 0)

	purchase, err := svc.CreatePurchase(f.ctx, f.userID, uuidPtr(market.ID), time.Now().UTC(), []uuid.UUID{tpl.ID})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	lines, err := svc.GetPurchaseLines(f.ctx, f.userID, purchase.ID)
	if err != nil {
		t.Fatalf("GetPurchaseLines: %v", err)
	}
	if lines[0].BrandProductID != nil {
		t.Errorf("expected no brand recommendation, got %v", lines[0].BrandProductID)
	}
	if lines[0].UnitPrice == nil || *lines[0].UnitPrice != 22 {
		t.Errorf("recommended price = %v, want generic global 22", lines[0].UnitPrice)
	}
}

func TestAddPurchaseLineRejectsCompletedPurchase(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	milk := f.seedGenericItem(t, f.userID, "Leche", nil, nil)
	done := f.seedCompletedPurchase(t, f.userID, nil, time.Now().UTC(), floatPtr(100))

	_, err := svc.AddPurchaseLine(f.ctx, f.userID, done.ID, milk.ID, nil)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestUpdateLineMergesOnlySetFields(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	milk := f.seedGenericItem(t, f.userID, "Leche", nil, nil)
	lala := f.seedBrandProduct(t, f.userID, milk.ID, "Lala", "1L", nil)
	draft := f.seedDraftPurchase(t, f.userID, nil)
	line := f.seedPurchaseLine(t, draft.ID, milk.ID, uuidPtr(lala.ID), floatPtr(2), floatPtr(25))

	// qty absent: untouched. unit_price null: cleared. checked set: applied.
	updated, err := svc.UpdateLine(f.ctx, f.userID, line.ID, domain.LineUpdate{
		UnitPrice: domain.SetNull[float64](),
		Checked:   domain.Set(true),
		Note:      domain.Set("sin lactosa"),
	})
	if err != nil {
		t.Fatalf("UpdateLine: %v", err)
	}
	if updated.Qty == nil || *updated.Qty != 2 {
		t.Errorf("qty = %v, want untouched 2", updated.Qty)
	}
	if updated.UnitPrice != nil {
		t.Errorf("unit_price = %v, want cleared", updated.UnitPrice)
	}
	if !updated.Checked {
		t.Error("checked not applied")
	}
	if updated.Note != "sin lactosa" {
		t.Errorf("note = %q", updated.Note)
	}
	if updated.BrandProductID == nil || *updated.BrandProductID != lala.ID {
		t.Errorf("brand = %v, want untouched %v", updated.BrandProductID, lala.ID)
	}
}

func TestFinishPurchaseRejectsCheckedLineWithoutPrice(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	market := f.seedSupermarket(t, nil, "Soriana")
	milk := f.seedGenericItem(t, f.userID, "Leche", nil, nil)
	lala := f.seedBrandProduct(t, f.userID, milk.ID, "Lala", "1L", nil)
	draft := f.seedDraftPurchase(t, f.userID, uuidPtr(market.ID))

	line := f.seedPurchaseLine(t, draft.ID, milk.ID, uuidPtr(lala.ID), floatPtr(1), nil)
	if _, err := svc.UpdateLine(f.ctx, f.userID, line.ID, domain.LineUpdate{Checked: domain.Set(true)}); err != nil {
		t.Fatalf("UpdateLine: %v", err)
	}

	_, err := svc.FinishPurchase(f.ctx, f.userID, draft.ID, 100, nil, nil, nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	// Nothing was committed: the purchase is still a draft and no
	// observation exists.
	p, err := svc.GetPurchase(f.ctx, f.userID, draft.ID)
	if err != nil {
		t.Fatalf("GetPurchase: %v", err)
	}
	if p.IsCompleted() {
		t.Error("purchase was completed despite validation failure")
	}
	obs, err := f.store.PriceObservations().FindByBrandProduct(f.ctx, f.userID, lala.ID)
	if err != nil {
		t.Fatalf("FindByBrandProduct: %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("expected no observations, got %d", len(obs))
	}
}

func TestFinishPurchaseEmitsObservationsForCheckedBrandedLines(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	market := f.seedSupermarket(t, nil, "Soriana")
	milk := f.seedGenericItem(t, f.userID, "Leche", nil, nil)
	bread := f.seedGenericItem(t, f.userID, "Pan", nil, nil)
	rice := f.seedGenericItem(t, f.userID, "Arroz", nil, nil)
	lala := f.seedBrandProduct(t, f.userID, milk.ID, "Lala", "1L", nil)
	bimbo := f.seedBrandProduct(t, f.userID, bread.ID, "Bimbo", "680g", nil)

	draft := f.seedDraftPurchase(t, f.userID, uuidPtr(market.ID))

	// checked + branded + priced: emits
	checked := f.seedPurchaseLine(t, draft.ID, milk.ID, uuidPtr(lala.ID), floatPtr(2), floatPtr(25))
	// unchecked branded: skipped
	f.seedPurchaseLine(t, draft.ID, bread.ID, uuidPtr(bimbo.ID), floatPtr(1), floatPtr(40))
	// checked but brandless: skipped
	brandless := f.seedPurchaseLine(t, draft.ID, rice.ID, nil, floatPtr(1), floatPtr(22))

	for _, id := range []uuid.UUID{checked.ID, brandless.ID} {
		if _, err := svc.UpdateLine(f.ctx, f.userID, id, domain.LineUpdate{Checked: domain.Set(true)}); err != nil {
			t.Fatalf("UpdateLine: %v", err)
		}
	}

	finished, err := svc.FinishPurchase(f.ctx, f.userID, draft.ID, 72, floatPtr(70), nil, floatPtr(2))
	if err != nil {
		t.Fatalf("FinishPurchase: %v", err)
	}
	if !finished.IsCompleted() {
		t.Error("purchase not completed")
	}
	if finished.TotalPaid == nil || *finished.TotalPaid != 72 {
		t.Errorf("total_paid = %v, want 72", finished.TotalPaid)
	}

	obs, err := f.store.PriceObservations().FindByBrandProduct(f.ctx, f.userID, lala.ID)
	if err != nil {
		t.Fatalf("FindByBrandProduct: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation for the checked branded line, got %d", len(obs))
	}
	if obs[0].UnitPrice == nil || *obs[0].UnitPrice != 25 {
		t.Errorf("observation price = %v, want 25", obs[0].UnitPrice)
	}
	if obs[0].SourcePurchaseID == nil || *obs[0].SourcePurchaseID != draft.ID {
		t.Errorf("observation source = %v, want %v", obs[0].SourcePurchaseID, draft.ID)
	}

	noObs, err := f.store.PriceObservations().FindByBrandProduct(f.ctx, f.userID, bimbo.ID)
	if err != nil {
		t.Fatalf("FindByBrandProduct: %v", err)
	}
	if len(noObs) != 0 {
		t.Errorf("unchecked line emitted %d observations", len(noObs))
	}
}

func TestFinishPurchaseWithoutSupermarketEmitsNoObservations(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	milk := f.seedGenericItem(t, f.userID, "Leche", nil, nil)
	lala := f.seedBrandProduct(t, f.userID, milk.ID, "Lala", "1L", nil)
	draft := f.seedDraftPurchase(t, f.userID, nil)

	line := f.seedPurchaseLine(t, draft.ID, milk.ID, uuidPtr(lala.ID), floatPtr(1), floatPtr(25))
	if _, err := svc.UpdateLine(f.ctx, f.userID, line.ID, domain.LineUpdate{Checked: domain.Set(true)}); err != nil {
		t.Fatalf("UpdateLine: %v", err)
	}

	if _, err := svc.FinishPurchase(f.ctx, f.userID, draft.ID, 25, nil, nil, nil); err != nil {
		t.Fatalf("FinishPurchase: %v", err)
	}

	obs, err := f.store.PriceObservations().FindByBrandProduct(f.ctx, f.userID, lala.ID)
	if err != nil {
		t.Fatalf("FindByBrandProduct: %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("expected no observations without a supermarket, got %d", len(obs))
	}
}

func TestFinishPurchaseAlreadyCompleted(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	done := f.seedCompletedPurchase(t, f.userID, nil, time.Now().UTC(), floatPtr(50))
	_, err := svc.FinishPurchase(f.ctx, f.userID, done.ID, 60, nil, nil, nil)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestPurchaseOwnershipIsHidden(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	other := uuid.New()
	foreign := f.seedCompletedPurchase(t, other, nil, time.Now().UTC(), floatPtr(50))

	if _, err := svc.GetPurchase(f.ctx, f.userID, foreign.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign purchase: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetPurchase(f.ctx, f.userID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing purchase: expected ErrNotFound, got %v", err)
	}
}

func TestDeletePurchaseRemovesLines(t *testing.T) {
	f := newFixture(t)
	svc := f.purchaseService()

	milk := f.seedGenericItem(t, f.userID, "Leche", nil, nil)
	draft := f.seedDraftPurchase(t, f.userID, nil)
	f.seedPurchaseLine(t, draft.ID, milk.ID, nil, floatPtr(1), nil)

	if err := svc.DeletePurchase(f.ctx, f.userID, draft.ID); err != nil {
		t.Fatalf("DeletePurchase: %v", err)
	}

	if _, err := svc.GetPurchase(f.ctx, f.userID, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted purchase to be gone, got %v", err)
	}
	lines, err := f.store.PurchaseLines().FindByPurchaseID(f.ctx, draft.ID)
	if err != nil {
		t.Fatalf("FindByPurchaseID: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no remaining lines, got %d", len(lines))
	}
}

// Feature: grocery-tracker, Property 8: Completing a purchase emits exactly one
// price observation per checked, branded, positively priced line
// Validates: Requirements 6.3, 6.4
func TestProperty_FinishPurchaseObservationCount(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	// Each code encodes one line: bit 0 checked, bit 1 branded, bit 2 priced.
	properties.Property("observation count matches qualifying lines", prop.ForAll(
		func(codes []int) bool {
			f := newFixture(t)
			svc := f.purchaseService()

			market := f.seedSupermarket(t, nil, "Soriana")
			draft := f.seedDraftPurchase(t, f.userID, uuidPtr(market.ID))

			expectValidationError := false
			expected := 0
			brandIDs := []uuid.UUID{}
			for i, code := range codes {
				checked := code&1 != 0
				branded := code&2 != 0
				priced := code&4 != 0

				generic := f.seedGenericItem(t, f.userID, "Item", nil, nil)
				var brandID *uuid.UUID
				if branded {
					b := f.seedBrandProduct(t, f.userID, generic.ID, "Marca", "u", nil)
					brandID = uuidPtr(b.ID)
					brandIDs = append(brandIDs, b.ID)
				}
				var price *float64
				if priced {
					price = floatPtr(float64(10 + i))
				}
				line := f.seedPurchaseLine(t, draft.ID, generic.ID, brandID, floatPtr(1), price)
				if checked {
					if _, err := svc.UpdateLine(f.ctx, f.userID, line.ID, domain.LineUpdate{Checked: domain.Set(true)}); err != nil {
						return false
					}
					if !priced {
						expectValidationError = true
					} else if branded {
						expected++
					}
				}
			}

			_, err := svc.FinishPurchase(f.ctx, f.userID, draft.ID, 100, nil, nil, nil)
			if expectValidationError {
				return errors.Is(err, ErrValidation)
			}
			if err != nil {
				return false
			}

			total := 0
			for _, brandID := range brandIDs {
				obs, err := f.store.PriceObservations().FindByBrandProduct(f.ctx, f.userID, brandID)
				if err != nil {
					return false
				}
				total += len(obs)
			}
			return total == expected
		},
		gen.SliceOf(gen.IntRange(0, 7)),
	))

	properties.TestingRun(t)
}
