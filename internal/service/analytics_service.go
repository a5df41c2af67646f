package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"despensa/internal/domain"
	"despensa/internal/repository"

	"github.com/google/uuid"
)

const (
	// UncategorizedLabel names the synthetic bucket for lines whose generic
	// item has no primary category.
	UncategorizedLabel = "Sin Categoría"

	uncategorizedKey = "uncategorized"

	frequentProductsLimit = 10
)

// FrequencyMode selects how frequent-product rankings count occurrences
type FrequencyMode string

const (
	// FrequencyByCount ranks by number of line occurrences
	FrequencyByCount FrequencyMode = "count"
	// FrequencyByUnits ranks by summed quantities
	FrequencyByUnits FrequencyMode = "units"
)

// MonthlyBucket is one month of spending, keyed YYYY-MM
type MonthlyBucket struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// MonthlyExpensesResult is the month series plus the average over months with
// spending
type MonthlyExpensesResult struct {
	History []MonthlyBucket `json:"history"`
	Average float64         `json:"average"`
}

// CategorySpend is one category's share of total spending
type CategorySpend struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// RankedProduct is one entry in a frequent-products ranking
type RankedProduct struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Value float64   `json:"value"`
}

// FrequentProductsResult ranks generic items and brand products independently
type FrequentProductsResult struct {
	Generics []RankedProduct `json:"generics"`
	Brands   []RankedProduct `json:"brands"`
}

// PricePoint is one observation in a brand's price history
type PricePoint struct {
	Date          time.Time `json:"date"`
	Price         *float64  `json:"price"`
	SupermarketID uuid.UUID `json:"supermarket_id"`
}

// LatestPrice is the most recent known price at one supermarket
type LatestPrice struct {
	SupermarketID uuid.UUID `json:"supermarket_id"`
	Price         *float64  `json:"price"`
	Date          time.Time `json:"date"`
}

// GenericBestPrice is the cheapest current price for a commodity at one
// supermarket, whatever the brand
type GenericBestPrice struct {
	SupermarketID uuid.UUID `json:"supermarket_id"`
	Price         *float64  `json:"price"`
	Date          time.Time `json:"date"`
	BrandID       uuid.UUID `json:"brand_id"`
}

// AnalyticsService derives spending and price series from completed purchases
// and price observations. All methods are read-only and recomputed per call.
type AnalyticsService interface {
	MonthlyExpenses(ctx context.Context, userID uuid.UUID, monthsBack int) (*MonthlyExpensesResult, error)
	CategorySpending(ctx context.Context, userID uuid.UUID) ([]CategorySpend, error)
	FrequentProducts(ctx context.Context, userID uuid.UUID, mode FrequencyMode) (*FrequentProductsResult, error)
	PriceHistory(ctx context.Context, userID, brandProductID uuid.UUID) ([]PricePoint, error)
	LatestPrices(ctx context.Context, userID, brandProductID uuid.UUID) ([]LatestPrice, error)
	GenericLatestPrices(ctx context.Context, userID, genericItemID uuid.UUID) ([]GenericBestPrice, error)
}

type analyticsService struct {
	purchaseRepo     repository.PurchaseRepository
	lineRepo         repository.PurchaseLineRepository
	genericItemRepo  repository.GenericItemRepository
	brandProductRepo repository.BrandProductRepository
	categoryRepo     repository.CategoryRepository
	observationRepo  repository.PriceObservationRepository

	// now is injectable for tests; defaults to time.Now
	now func() time.Time
}

// NewAnalyticsService creates a new instance of AnalyticsService
func NewAnalyticsService(
	purchaseRepo repository.PurchaseRepository,
	lineRepo repository.PurchaseLineRepository,
	genericItemRepo repository.GenericItemRepository,
	brandProductRepo repository.BrandProductRepository,
	categoryRepo repository.CategoryRepository,
	observationRepo repository.PriceObservationRepository,
) AnalyticsService {
	return &analyticsService{
		purchaseRepo:     purchaseRepo,
		lineRepo:         lineRepo,
		genericItemRepo:  genericItemRepo,
		brandProductRepo: brandProductRepo,
		categoryRepo:     categoryRepo,
		observationRepo:  observationRepo,
		now:              time.Now,
	}
}

// MonthlyExpenses buckets completed-purchase totals into the last monthsBack
// calendar months (current month included). Purchases older than the window
// are ignored. The average divides by the number of months with spending, not
// the window size.
func (s *analyticsService) MonthlyExpenses(ctx context.Context, userID uuid.UUID, monthsBack int) (*MonthlyExpensesResult, error) {
	purchases, err := s.purchaseRepo.FindCompletedByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}

	// UTC month arithmetic avoids timezone drift at month boundaries.
	buckets := make(map[string]float64, monthsBack)
	current := s.now().UTC()
	for i := 0; i < monthsBack; i++ {
		month := time.Date(current.Year(), current.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		buckets[month.Format("2006-01")] = 0
	}

	for _, purchase := range purchases {
		if purchase.TotalPaid == nil {
			continue
		}
		key := purchase.Date.UTC().Format("2006-01")
		if _, ok := buckets[key]; !ok {
			continue
		}
		buckets[key] += *purchase.TotalPaid
	}

	history := make([]MonthlyBucket, 0, len(buckets))
	for month, total := range buckets {
		history = append(history, MonthlyBucket{Month: month, Total: total})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Month < history[j].Month })

	var sum float64
	var monthsWithSpend int
	for _, bucket := range history {
		sum += bucket.Total
		if bucket.Total > 0 {
			monthsWithSpend++
		}
	}
	average := 0.0
	if monthsWithSpend > 0 {
		average = sum / float64(monthsWithSpend)
	}

	return &MonthlyExpensesResult{History: history, Average: average}, nil
}

// CategorySpending accumulates per-line amounts into the generic item's
// primary category. Lines without a category land in a synthetic
// "uncategorized" bucket that only appears when it holds spending.
func (s *analyticsService) CategorySpending(ctx context.Context, userID uuid.UUID) ([]CategorySpend, error) {
	lines, err := s.completedLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	genericIDs := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool)
	for _, line := range lines {
		if !seen[line.GenericItemID] {
			seen[line.GenericItemID] = true
			genericIDs = append(genericIDs, line.GenericItemID)
		}
	}
	generics, err := s.genericItemRepo.FindByIDs(ctx, genericIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load generic items: %w", err)
	}
	categoryByGeneric := make(map[uuid.UUID]*uuid.UUID, len(generics))
	for _, g := range generics {
		categoryByGeneric[g.ID] = g.PrimaryCategoryID
	}

	totals := make(map[string]float64)
	for _, line := range lines {
		amount := line.Amount()
		if amount == 0 {
			continue
		}
		categoryID, ok := categoryByGeneric[line.GenericItemID]
		if !ok || categoryID == nil {
			totals[uncategorizedKey] += amount
			continue
		}
		totals[categoryID.String()] += amount
	}

	categories, err := s.categoryRepo.FindAllBaseAndUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	nameByID := make(map[string]string, len(categories))
	for _, c := range categories {
		nameByID[c.ID.String()] = c.Name
	}

	result := []CategorySpend{}
	var grandTotal float64
	uncat := totals[uncategorizedKey]
	for id, value := range totals {
		if id == uncategorizedKey {
			continue
		}
		name := nameByID[id]
		if name == "" {
			// category soft-deleted since the purchase
			uncat += value
			continue
		}
		result = append(result, CategorySpend{ID: id, Name: name, Value: value})
		grandTotal += value
	}
	if uncat > 0 {
		result = append(result, CategorySpend{ID: uncategorizedKey, Name: UncategorizedLabel, Value: uncat})
		grandTotal += uncat
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Value > result[j].Value })
	for i := range result {
		if grandTotal > 0 {
			result[i].Percentage = result[i].Value / grandTotal * 100
		}
	}

	return result, nil
}

// FrequentProducts ranks the top 10 generic items and brand products across
// all completed purchases. Ids that no longer resolve to a name are dropped.
func (s *analyticsService) FrequentProducts(ctx context.Context, userID uuid.UUID, mode FrequencyMode) (*FrequentProductsResult, error) {
	lines, err := s.completedLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	genericTally := make(map[uuid.UUID]float64)
	brandTally := make(map[uuid.UUID]float64)
	for _, line := range lines {
		increment := 1.0
		if mode == FrequencyByUnits {
			increment = 0
			if line.Qty != nil {
				increment = *line.Qty
			}
		}
		genericTally[line.GenericItemID] += increment
		if line.BrandProductID != nil {
			brandTally[*line.BrandProductID] += increment
		}
	}

	generics, err := s.genericItemRepo.FindByIDs(ctx, mapKeys(genericTally))
	if err != nil {
		return nil, fmt.Errorf("failed to load generic items: %w", err)
	}
	genericRanking := []RankedProduct{}
	for _, g := range generics {
		genericRanking = append(genericRanking, RankedProduct{
			ID:    g.ID,
			Name:  g.CanonicalName,
			Value: genericTally[g.ID],
		})
	}

	brands, err := s.brandProductRepo.FindByIDs(ctx, mapKeys(brandTally))
	if err != nil {
		return nil, fmt.Errorf("failed to load brand products: %w", err)
	}
	brandRanking := []RankedProduct{}
	for _, b := range brands {
		brandRanking = append(brandRanking, RankedProduct{
			ID:    b.ID,
			Name:  b.DisplayName(),
			Value: brandTally[b.ID],
		})
	}

	return &FrequentProductsResult{
		Generics: sortAndTruncate(genericRanking),
		Brands:   sortAndTruncate(brandRanking),
	}, nil
}

// PriceHistory returns all observations for a brand in chronological order.
func (s *analyticsService) PriceHistory(ctx context.Context, userID, brandProductID uuid.UUID) ([]PricePoint, error) {
	observations, err := s.observationRepo.FindByBrandProduct(ctx, userID, brandProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price observations: %w", err)
	}

	history := make([]PricePoint, 0, len(observations))
	for _, obs := range observations {
		history = append(history, PricePoint{
			Date:          obs.ObservedAt,
			Price:         obs.UnitPrice,
			SupermarketID: obs.SupermarketID,
		})
	}
	return history, nil
}

// LatestPrices returns the most recent priced observation per supermarket.
// An observation without a price never replaces an earlier priced one, even
// when it is more recent, so "latest" can reflect a stale priced observation
// superseded by a "seen, price unknown" one.
func (s *analyticsService) LatestPrices(ctx context.Context, userID, brandProductID uuid.UUID) ([]LatestPrice, error) {
	observations, err := s.observationRepo.FindByBrandProduct(ctx, userID, brandProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price observations: %w", err)
	}

	latest := make(map[uuid.UUID]*domain.PriceObservation)
	for _, obs := range observations {
		if obs.UnitPrice == nil {
			continue
		}
		current, ok := latest[obs.SupermarketID]
		if !ok || obs.ObservedAt.After(current.ObservedAt) || obs.ObservedAt.Equal(current.ObservedAt) {
			latest[obs.SupermarketID] = obs
		}
	}

	result := make([]LatestPrice, 0, len(latest))
	for supermarketID, obs := range latest {
		result = append(result, LatestPrice{
			SupermarketID: supermarketID,
			Price:         obs.UnitPrice,
			Date:          obs.ObservedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SupermarketID.String() < result[j].SupermarketID.String()
	})
	return result, nil
}

// GenericLatestPrices reduces twice: latest observation per (supermarket,
// brand) pair, then the minimum price per supermarket. The result is the best
// current price for the commodity at each store regardless of brand.
func (s *analyticsService) GenericLatestPrices(ctx context.Context, userID, genericItemID uuid.UUID) ([]GenericBestPrice, error) {
	brands, err := s.brandProductRepo.FindByGenericItemID(ctx, genericItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load brand products: %w", err)
	}
	brandIDs := make([]uuid.UUID, 0, len(brands))
	for _, b := range brands {
		brandIDs = append(brandIDs, b.ID)
	}

	observations, err := s.observationRepo.FindByBrandProducts(ctx, userID, brandIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load price observations: %w", err)
	}

	type pairKey struct {
		supermarket uuid.UUID
		brand       uuid.UUID
	}
	latestPerPair := make(map[pairKey]*domain.PriceObservation)
	for _, obs := range observations {
		if obs.UnitPrice == nil {
			continue
		}
		key := pairKey{supermarket: obs.SupermarketID, brand: obs.BrandProductID}
		current, ok := latestPerPair[key]
		if !ok || obs.ObservedAt.After(current.ObservedAt) || obs.ObservedAt.Equal(current.ObservedAt) {
			latestPerPair[key] = obs
		}
	}

	best := make(map[uuid.UUID]*domain.PriceObservation)
	for _, obs := range latestPerPair {
		current, ok := best[obs.SupermarketID]
		if !ok || *obs.UnitPrice < *current.UnitPrice {
			best[obs.SupermarketID] = obs
		}
	}

	result := make([]GenericBestPrice, 0, len(best))
	for supermarketID, obs := range best {
		result = append(result, GenericBestPrice{
			SupermarketID: supermarketID,
			Price:         obs.UnitPrice,
			Date:          obs.ObservedAt,
			BrandID:       obs.BrandProductID,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SupermarketID.String() < result[j].SupermarketID.String()
	})
	return result, nil
}

// completedLines loads every line of every completed purchase for the user
func (s *analyticsService) completedLines(ctx context.Context, userID uuid.UUID) ([]*domain.PurchaseLine, error) {
	purchases, err := s.purchaseRepo.FindCompletedByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}
	if len(purchases) == 0 {
		return []*domain.PurchaseLine{}, nil
	}

	ids := make([]uuid.UUID, 0, len(purchases))
	for _, p := range purchases {
		ids = append(ids, p.ID)
	}

	lines, err := s.lineRepo.FindByPurchaseIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase lines: %w", err)
	}
	return lines, nil
}

func mapKeys(m map[uuid.UUID]float64) []uuid.UUID {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func sortAndTruncate(ranking []RankedProduct) []RankedProduct {
	sort.Slice(ranking, func(i, j int) bool { return ranking[i].Value > ranking[j].Value })
	if len(ranking) > frequentProductsLimit {
		ranking = ranking[:frequentProductsLimit]
	}
	return ranking
}
