package memory

import (
	"context"
	"sort"
	"time"

	"despensa/internal/domain"
	"despensa/internal/repository"

	"github.com/google/uuid"
)

type purchaseRepo struct {
	store *Store
}

// Purchases returns a PurchaseRepository backed by the store
func (s *Store) Purchases() repository.PurchaseRepository {
	return &purchaseRepo{store: s}
}

func (r *purchaseRepo) Create(ctx context.Context, purchase *domain.Purchase) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *purchase
	r.store.purchases[purchase.ID] = &stored
	return nil
}

func (r *purchaseRepo) Update(ctx context.Context, purchase *domain.Purchase) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.purchases[purchase.ID]
	if !ok || stored.IsDeleted {
		return repository.ErrPurchaseNotFound
	}
	updated := *purchase
	r.store.purchases[purchase.ID] = &updated
	return nil
}

func (r *purchaseRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.purchases[id]
	if !ok || stored.IsDeleted {
		return repository.ErrPurchaseNotFound
	}
	stored.IsDeleted = true
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *purchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.purchases[id]
	if !ok || stored.IsDeleted {
		return nil, repository.ErrPurchaseNotFound
	}
	found := *stored
	return &found, nil
}

func (r *purchaseRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Purchase, error) {
	return r.collect(func(p *domain.Purchase) bool {
		return p.OwnerUserID == ownerID
	}, 0)
}

func (r *purchaseRepo) FindCompletedByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Purchase, error) {
	return r.collect(func(p *domain.Purchase) bool {
		return p.OwnerUserID == ownerID && p.Status == domain.PurchaseStatusCompleted
	}, 0)
}

func (r *purchaseRepo) FindRecentCompletedBySupermarket(ctx context.Context, ownerID, supermarketID uuid.UUID, limit int) ([]*domain.Purchase, error) {
	return r.collect(func(p *domain.Purchase) bool {
		return p.OwnerUserID == ownerID &&
			p.Status == domain.PurchaseStatusCompleted &&
			p.SupermarketID != nil && *p.SupermarketID == supermarketID
	}, limit)
}

// Complete applies the status transition and appends observations under one
// lock; either everything is visible or nothing is.
func (r *purchaseRepo) Complete(ctx context.Context, purchase *domain.Purchase, observations []*domain.PriceObservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.purchases[purchase.ID]
	if !ok || stored.IsDeleted {
		return repository.ErrPurchaseNotFound
	}

	updated := *purchase
	r.store.purchases[purchase.ID] = &updated

	for _, obs := range observations {
		storedObs := *obs
		r.store.priceObservations[obs.ID] = &storedObs
		r.store.obsOrder[obs.ID] = r.store.nextSeq()
	}

	return nil
}

// collect returns matching purchases newest first; limit 0 means no limit
func (r *purchaseRepo) collect(match func(*domain.Purchase) bool, limit int) ([]*domain.Purchase, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.Purchase{}
	for _, stored := range r.store.purchases {
		if stored.IsDeleted || !match(stored) {
			continue
		}
		found := *stored
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type purchaseLineRepo struct {
	store *Store
}

// PurchaseLines returns a PurchaseLineRepository backed by the store
func (s *Store) PurchaseLines() repository.PurchaseLineRepository {
	return &purchaseLineRepo{store: s}
}

func (r *purchaseLineRepo) Create(ctx context.Context, line *domain.PurchaseLine) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *line
	r.store.purchaseLines[line.ID] = &stored
	r.store.lineOrder[line.ID] = r.store.nextSeq()
	return nil
}

func (r *purchaseLineRepo) CreateBatch(ctx context.Context, lines []*domain.PurchaseLine) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, line := range lines {
		stored := *line
		r.store.purchaseLines[line.ID] = &stored
		r.store.lineOrder[line.ID] = r.store.nextSeq()
	}
	return nil
}

func (r *purchaseLineRepo) Update(ctx context.Context, line *domain.PurchaseLine) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.purchaseLines[line.ID]
	if !ok || stored.IsDeleted {
		return repository.ErrPurchaseLineNotFound
	}
	updated := *line
	r.store.purchaseLines[line.ID] = &updated
	return nil
}

func (r *purchaseLineRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseLine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.purchaseLines[id]
	if !ok || stored.IsDeleted {
		return nil, repository.ErrPurchaseLineNotFound
	}
	found := *stored
	return &found, nil
}

func (r *purchaseLineRepo) FindByPurchaseID(ctx context.Context, purchaseID uuid.UUID) ([]*domain.PurchaseLine, error) {
	return r.collect(func(l *domain.PurchaseLine) bool {
		return l.PurchaseID == purchaseID
	})
}

func (r *purchaseLineRepo) FindByPurchaseIDs(ctx context.Context, purchaseIDs []uuid.UUID) ([]*domain.PurchaseLine, error) {
	wanted := idSet(purchaseIDs)
	return r.collect(func(l *domain.PurchaseLine) bool {
		return wanted[l.PurchaseID]
	})
}

func (r *purchaseLineRepo) SoftDeleteByPurchaseID(ctx context.Context, purchaseID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, stored := range r.store.purchaseLines {
		if stored.PurchaseID == purchaseID && !stored.IsDeleted {
			stored.IsDeleted = true
			stored.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (r *purchaseLineRepo) collect(match func(*domain.PurchaseLine) bool) ([]*domain.PurchaseLine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.PurchaseLine{}
	for _, stored := range r.store.purchaseLines {
		if stored.IsDeleted || !match(stored) {
			continue
		}
		found := *stored
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool {
		return r.store.lineOrder[result[i].ID] < r.store.lineOrder[result[j].ID]
	})
	return result, nil
}
