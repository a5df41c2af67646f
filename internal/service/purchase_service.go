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

const (
	// RecentPurchaseScanLimit caps how many recent completed purchases at the
	// same supermarket the brand recommendation scans.
	RecentPurchaseScanLimit = 5
)

// PurchaseService builds shopping trips from templates, manages the
// draft -> completed lifecycle, and emits price observations at completion.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, userID uuid.UUID, supermarketID *uuid.UUID, date time.Time, templateIDs []uuid.UUID) (*domain.Purchase, error)
	GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*domain.Purchase, error)
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]*domain.Purchase, error)
	GetPurchaseLines(ctx context.Context, userID, purchaseID uuid.UUID) ([]*domain.PurchaseLine, error)
	AddPurchaseLine(ctx context.Context, userID, purchaseID, genericItemID uuid.UUID, unitPrice *float64) (*domain.PurchaseLine, error)
	UpdateLine(ctx context.Context, userID, lineID uuid.UUID, updates domain.LineUpdate) (*domain.PurchaseLine, error)
	FinishPurchase(ctx context.Context, userID, purchaseID uuid.UUID, totalPaid float64, subtotal, discount, tax *float64) (*domain.Purchase, error)
	DeletePurchase(ctx context.Context, userID, purchaseID uuid.UUID) error
}

type purchaseService struct {
	purchaseRepo     repository.PurchaseRepository
	lineRepo         repository.PurchaseLineRepository
	templateRepo     repository.TemplateRepository
	templateItemRepo repository.TemplateItemRepository
	genericItemRepo  repository.GenericItemRepository
	brandProductRepo repository.BrandProductRepository
	observationRepo  repository.PriceObservationRepository
	defaultCurrency  string
}

// NewPurchaseService creates a new instance of PurchaseService. defaultCurrency
// is the fleet-wide currency code stamped on every new purchase.
func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	lineRepo repository.PurchaseLineRepository,
	templateRepo repository.TemplateRepository,
	templateItemRepo repository.TemplateItemRepository,
	genericItemRepo repository.GenericItemRepository,
	brandProductRepo repository.BrandProductRepository,
	observationRepo repository.PriceObservationRepository,
	defaultCurrency string,
) PurchaseService {
	return &purchaseService{
		purchaseRepo:     purchaseRepo,
		lineRepo:         lineRepo,
		templateRepo:     templateRepo,
		templateItemRepo: templateItemRepo,
		genericItemRepo:  genericItemRepo,
		brandProductRepo: brandProductRepo,
		observationRepo:  observationRepo,
		defaultCurrency:  defaultCurrency,
	}
}

// CreatePurchase creates a draft purchase seeded from the given templates.
// Template items are consolidated by generic item (first occurrence wins, in
// template order then item sort order) and each resulting line gets a
// recommended brand and unit price from purchase history and observations.
func (s *purchaseService) CreatePurchase(ctx context.Context, userID uuid.UUID, supermarketID *uuid.UUID, date time.Time, templateIDs []uuid.UUID) (*domain.Purchase, error) {
	now := time.Now().UTC()
	purchase := &domain.Purchase{
		ID:                  uuid.New(),
		OwnerUserID:         userID,
		SupermarketID:       supermarketID,
		Date:                date,
		CurrencyCode:        s.defaultCurrency,
		SelectedTemplateIDs: templateIDs,
		Status:              domain.PurchaseStatusDraft,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	consolidated, err := s.consolidateTemplateItems(ctx, userID, templateIDs)
	if err != nil {
		return nil, err
	}
	if len(consolidated) == 0 {
		return purchase, nil
	}

	rec, err := s.buildRecommendation(ctx, userID, supermarketID, consolidated)
	if err != nil {
		return nil, err
	}

	lines := make([]*domain.PurchaseLine, 0, len(consolidated))
	for _, item := range consolidated {
		brandID := rec.resolveBrand(item.GenericItemID)
		unitPrice := rec.resolvePrice(item.GenericItemID, brandID)

		lines = append(lines, &domain.PurchaseLine{
			ID:             uuid.New(),
			PurchaseID:     purchase.ID,
			GenericItemID:  item.GenericItemID,
			BrandProductID: brandID,
			Qty:            item.DefaultQty,
			UnitID:         item.DefaultUnitID,
			UnitPrice:      unitPrice,
			Checked:        false,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.lineRepo.CreateBatch(ctx, lines); err != nil {
		return nil, fmt.Errorf("failed to create purchase lines: %w", err)
	}

	return purchase, nil
}

// consolidateTemplateItems collects template items across the selected
// templates, deduplicated by generic item. Quantities are never summed across
// duplicates; the first-encountered item decides qty and unit. Items pointing
// at missing generic items are kept as-is.
func (s *purchaseService) consolidateTemplateItems(ctx context.Context, userID uuid.UUID, templateIDs []uuid.UUID) ([]*domain.TemplateItem, error) {
	seen := make(map[uuid.UUID]bool)
	consolidated := []*domain.TemplateItem{}

	for _, templateID := range templateIDs {
		template, err := s.templateRepo.FindByID(ctx, templateID)
		if err != nil {
			if errors.Is(err, repository.ErrTemplateNotFound) {
				return nil, notFoundf("template not found")
			}
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		if template.OwnerUserID != userID {
			return nil, notFoundf("template not found")
		}

		items, err := s.templateItemRepo.FindByTemplateID(ctx, templateID)
		if err != nil {
			return nil, fmt.Errorf("failed to load template items: %w", err)
		}

		for _, item := range items {
			if seen[item.GenericItemID] {
				continue
			}
			seen[item.GenericItemID] = true
			consolidated = append(consolidated, item)
		}
	}

	return consolidated, nil
}

// recommendation holds the precomputed data the brand and price resolvers
// work against, so resolution per item is pure lookup.
type recommendation struct {
	resolvers []brandResolver

	supermarketID *uuid.UUID
	generics      map[uuid.UUID]*domain.GenericItem
	brands        map[uuid.UUID]*domain.BrandProduct

	// latest priced observation at this supermarket per brand product
	latestObsByBrand map[uuid.UUID]*domain.PriceObservation
}

// brandResolver is one strategy in the ordered fallback chain. It returns nil
// when it has no recommendation for the generic item.
type brandResolver struct {
	name    string
	resolve func(genericItemID uuid.UUID) *uuid.UUID
}

func (s *purchaseService) buildRecommendation(ctx context.Context, userID uuid.UUID, supermarketID *uuid.UUID, items []*domain.TemplateItem) (*recommendation, error) {
	genericIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		genericIDs = append(genericIDs, item.GenericItemID)
	}

	genericList, err := s.genericItemRepo.FindByIDs(ctx, genericIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load generic items: %w", err)
	}
	generics := make(map[uuid.UUID]*domain.GenericItem, len(genericList))
	for _, g := range genericList {
		generics[g.ID] = g
	}

	// All known brands of the requested generics, for observation lookups
	// and global-price fallbacks.
	brands := make(map[uuid.UUID]*domain.BrandProduct)
	brandsByGeneric := make(map[uuid.UUID][]uuid.UUID)
	for _, genericID := range genericIDs {
		list, err := s.brandProductRepo.FindByGenericItemID(ctx, genericID)
		if err != nil {
			return nil, fmt.Errorf("failed to load brand products: %w", err)
		}
		for _, b := range list {
			brands[b.ID] = b
			brandsByGeneric[genericID] = append(brandsByGeneric[genericID], b.ID)
		}
	}

	rec := &recommendation{
		supermarketID:    supermarketID,
		generics:         generics,
		brands:           brands,
		latestObsByBrand: make(map[uuid.UUID]*domain.PriceObservation),
	}

	// latestObsForGeneric is the brand behind the most recent observation at
	// this supermarket among all brands of the generic item.
	latestObsForGeneric := make(map[uuid.UUID]*uuid.UUID)

	if supermarketID != nil {
		allBrandIDs := make([]uuid.UUID, 0, len(brands))
		for id := range brands {
			allBrandIDs = append(allBrandIDs, id)
		}

		observations, err := s.observationRepo.FindBySupermarketAndBrands(ctx, userID, *supermarketID, allBrandIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load price observations: %w", err)
		}

		// Observations arrive oldest first, so later entries overwrite
		// earlier ones and the maps end up holding the latest.
		latestAnyByGeneric := make(map[uuid.UUID]*domain.PriceObservation)
		for _, obs := range observations {
			brand := brands[obs.BrandProductID]
			if brand == nil {
				continue
			}
			if obs.UnitPrice != nil {
				rec.latestObsByBrand[obs.BrandProductID] = obs
			}
			latestAnyByGeneric[brand.GenericItemID] = obs
		}
		for genericID, obs := range latestAnyByGeneric {
			brandID := obs.BrandProductID
			latestObsForGeneric[genericID] = &brandID
		}
	}

	// Brand picks from the user's most recent completed purchases at this
	// supermarket, most recent purchase first, line order within each.
	recentBrandByGeneric := make(map[uuid.UUID]*uuid.UUID)
	if supermarketID != nil {
		recent, err := s.purchaseRepo.FindRecentCompletedBySupermarket(ctx, userID, *supermarketID, RecentPurchaseScanLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load recent purchases: %w", err)
		}
		for _, p := range recent {
			lines, err := s.lineRepo.FindByPurchaseID(ctx, p.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load purchase lines: %w", err)
			}
			for _, line := range lines {
				if line.BrandProductID == nil {
					continue
				}
				if _, ok := recentBrandByGeneric[line.GenericItemID]; ok {
					continue
				}
				brandID := *line.BrandProductID
				recentBrandByGeneric[line.GenericItemID] = &brandID
			}
		}
	}

	rec.resolvers = []brandResolver{
		{
			name: "recent purchases at supermarket",
			resolve: func(genericItemID uuid.UUID) *uuid.UUID {
				return recentBrandByGeneric[genericItemID]
			},
		},
		{
			name: "latest observation at supermarket",
			resolve: func(genericItemID uuid.UUID) *uuid.UUID {
				return latestObsForGeneric[genericItemID]
			},
		},
	}

	return rec, nil
}

// resolveBrand walks the resolver chain; the first strategy that yields a
// brand wins.
func (r *recommendation) resolveBrand(genericItemID uuid.UUID) *uuid.UUID {
	for _, resolver := range r.resolvers {
		if brandID := resolver.resolve(genericItemID); brandID != nil {
			return brandID
		}
	}
	return nil
}

// resolvePrice runs independently of brand selection: latest priced
// observation at this supermarket for the chosen brand, then the brand's
// global price, then the generic item's global price, then nothing.
func (r *recommendation) resolvePrice(genericItemID uuid.UUID, brandID *uuid.UUID) *float64 {
	if brandID != nil {
		if obs, ok := r.latestObsByBrand[*brandID]; ok {
			price := *obs.UnitPrice
			return &price
		}
		if brand := r.brands[*brandID]; brand != nil && brand.GlobalPrice != nil {
			price := *brand.GlobalPrice
			return &price
		}
	}
	if generic := r.generics[genericItemID]; generic != nil && generic.GlobalPrice != nil {
		price := *generic.GlobalPrice
		return &price
	}
	return nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*domain.Purchase, error) {
	return s.loadOwnedPurchase(ctx, userID, purchaseID)
}

func (s *purchaseService) ListPurchases(ctx context.Context, userID uuid.UUID) ([]*domain.Purchase, error) {
	purchases, err := s.purchaseRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

func (s *purchaseService) GetPurchaseLines(ctx context.Context, userID, purchaseID uuid.UUID) ([]*domain.PurchaseLine, error) {
	if _, err := s.loadOwnedPurchase(ctx, userID, purchaseID); err != nil {
		return nil, err
	}

	lines, err := s.lineRepo.FindByPurchaseID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase lines: %w", err)
	}
	return lines, nil
}

// AddPurchaseLine appends an ad-hoc line for an item outside any template.
func (s *purchaseService) AddPurchaseLine(ctx context.Context, userID, purchaseID, genericItemID uuid.UUID, unitPrice *float64) (*domain.PurchaseLine, error) {
	purchase, err := s.loadOwnedPurchase(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.IsCompleted() {
		return nil, invalidStatef("cannot edit completed purchase")
	}

	now := time.Now().UTC()
	qty := 1.0
	line := &domain.PurchaseLine{
		ID:            uuid.New(),
		PurchaseID:    purchase.ID,
		GenericItemID: genericItemID,
		Qty:           &qty,
		UnitPrice:     unitPrice,
		Checked:       false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.lineRepo.Create(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add purchase line: %w", err)
	}

	return line, nil
}

// UpdateLine merges the provided fields into the line. Fields absent from the
// update are untouched; fields explicitly set to null are cleared.
func (s *purchaseService) UpdateLine(ctx context.Context, userID, lineID uuid.UUID, updates domain.LineUpdate) (*domain.PurchaseLine, error) {
	line, err := s.lineRepo.FindByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, repository.ErrPurchaseLineNotFound) {
			return nil, notFoundf("purchase line not found")
		}
		return nil, fmt.Errorf("failed to load purchase line: %w", err)
	}

	purchase, err := s.loadOwnedPurchase(ctx, userID, line.PurchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.IsCompleted() {
		return nil, invalidStatef("cannot edit completed purchase")
	}

	updates.BrandProductID.Apply(&line.BrandProductID)
	updates.Qty.Apply(&line.Qty)
	updates.UnitID.Apply(&line.UnitID)
	updates.UnitPrice.Apply(&line.UnitPrice)
	updates.LineAmountOverride.Apply(&line.LineAmountOverride)
	if updates.Checked.IsSet() && !updates.Checked.IsNull() {
		line.Checked = updates.Checked.Value()
	}
	if updates.Note.IsSet() {
		if updates.Note.IsNull() {
			line.Note = ""
		} else {
			line.Note = updates.Note.Value()
		}
	}
	line.UpdatedAt = time.Now().UTC()

	if err := s.lineRepo.Update(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to update purchase line: %w", err)
	}

	return line, nil
}

// FinishPurchase transitions a draft purchase to completed, stores real
// totals, and emits price observations for checked branded lines. Validation
// failure leaves the purchase untouched; the transition and the observations
// are written atomically.
func (s *purchaseService) FinishPurchase(ctx context.Context, userID, purchaseID uuid.UUID, totalPaid float64, subtotal, discount, tax *float64) (*domain.Purchase, error) {
	purchase, err := s.loadOwnedPurchase(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.IsCompleted() {
		return nil, invalidStatef("purchase already completed")
	}

	lines, err := s.lineRepo.FindByPurchaseID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase lines: %w", err)
	}

	// Every checked line must carry a positive price; the whole operation
	// fails on the first violation.
	for _, line := range lines {
		if !line.Checked {
			continue
		}
		if line.UnitPrice == nil || *line.UnitPrice <= 0 {
			return nil, validationf("checked item %q has no valid price", s.genericItemName(ctx, line.GenericItemID))
		}
	}

	now := time.Now().UTC()
	purchase.Status = domain.PurchaseStatusCompleted
	purchase.TotalPaid = &totalPaid
	purchase.Subtotal = subtotal
	purchase.Discount = discount
	purchase.Tax = tax
	purchase.UpdatedAt = now

	observations := []*domain.PriceObservation{}
	if purchase.SupermarketID != nil {
		for _, line := range lines {
			if !line.Checked || line.BrandProductID == nil {
				continue
			}
			if line.UnitPrice == nil || *line.UnitPrice <= 0 {
				continue
			}
			price := *line.UnitPrice
			sourceID := purchase.ID
			observations = append(observations, &domain.PriceObservation{
				ID:               uuid.New(),
				OwnerUserID:      userID,
				BrandProductID:   *line.BrandProductID,
				SupermarketID:    *purchase.SupermarketID,
				UnitPrice:        &price,
				CurrencyCode:     purchase.CurrencyCode,
				ObservedAt:       purchase.Date,
				SourcePurchaseID: &sourceID,
				CreatedAt:        now,
			})
		}
	}

	if err := s.purchaseRepo.Complete(ctx, purchase, observations); err != nil {
		return nil, fmt.Errorf("failed to complete purchase: %w", err)
	}

	return purchase, nil
}

// DeletePurchase soft-deletes the purchase's lines, then the purchase.
func (s *purchaseService) DeletePurchase(ctx context.Context, userID, purchaseID uuid.UUID) error {
	purchase, err := s.loadOwnedPurchase(ctx, userID, purchaseID)
	if err != nil {
		return err
	}

	if err := s.lineRepo.SoftDeleteByPurchaseID(ctx, purchase.ID); err != nil {
		return fmt.Errorf("failed to delete purchase lines: %w", err)
	}
	if err := s.purchaseRepo.SoftDelete(ctx, purchase.ID); err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}

	return nil
}

// loadOwnedPurchase resolves a purchase id within the caller's ownership.
// Foreign and missing purchases are indistinguishable to the caller.
func (s *purchaseService) loadOwnedPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, repository.ErrPurchaseNotFound) {
			return nil, notFoundf("purchase not found")
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	if purchase.OwnerUserID != userID {
		return nil, notFoundf("purchase not found")
	}
	return purchase, nil
}

func (s *purchaseService) genericItemName(ctx context.Context, genericItemID uuid.UUID) string {
	item, err := s.genericItemRepo.FindByID(ctx, genericItemID)
	if err != nil {
		return genericItemID.String()
	}
	return item.CanonicalName
}
