package memory

import (
	"context"
	"sort"
	"time"

	"despensa/internal/domain"
	"despensa/internal/repository"

	"github.com/google/uuid"
)

type genericItemRepo struct {
	store *Store
}

// GenericItems returns a GenericItemRepository backed by the store
func (s *Store) GenericItems() repository.GenericItemRepository {
	return &genericItemRepo{store: s}
}

func (r *genericItemRepo) Create(ctx context.Context, item *domain.GenericItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *item
	r.store.genericItems[item.ID] = &stored
	return nil
}

func (r *genericItemRepo) Update(ctx context.Context, item *domain.GenericItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.genericItems[item.ID]
	if !ok || stored.IsDeleted {
		return repository.ErrGenericItemNotFound
	}
	updated := *item
	r.store.genericItems[item.ID] = &updated
	return nil
}

func (r *genericItemRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.genericItems[id]
	if !ok || stored.IsDeleted {
		return repository.ErrGenericItemNotFound
	}
	stored.IsDeleted = true
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *genericItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.GenericItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.genericItems[id]
	if !ok || stored.IsDeleted {
		return nil, repository.ErrGenericItemNotFound
	}
	found := *stored
	return &found, nil
}

func (r *genericItemRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.GenericItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.GenericItem{}
	for _, stored := range r.store.genericItems {
		if stored.IsDeleted || stored.OwnerUserID != ownerID {
			continue
		}
		found := *stored
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CanonicalName < result[j].CanonicalName })
	return result, nil
}

func (r *genericItemRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.GenericItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.GenericItem{}
	for _, id := range ids {
		stored, ok := r.store.genericItems[id]
		if !ok || stored.IsDeleted {
			continue
		}
		found := *stored
		result = append(result, &found)
	}
	return result, nil
}

type brandProductRepo struct {
	store *Store
}

// BrandProducts returns a BrandProductRepository backed by the store
func (s *Store) BrandProducts() repository.BrandProductRepository {
	return &brandProductRepo{store: s}
}

func (r *brandProductRepo) Create(ctx context.Context, product *domain.BrandProduct) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *product
	r.store.brandProducts[product.ID] = &stored
	return nil
}

func (r *brandProductRepo) Update(ctx context.Context, product *domain.BrandProduct) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.brandProducts[product.ID]
	if !ok || stored.IsDeleted {
		return repository.ErrBrandProductNotFound
	}
	updated := *product
	r.store.brandProducts[product.ID] = &updated
	return nil
}

func (r *brandProductRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.brandProducts[id]
	if !ok || stored.IsDeleted {
		return repository.ErrBrandProductNotFound
	}
	stored.IsDeleted = true
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *brandProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.BrandProduct, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.brandProducts[id]
	if !ok || stored.IsDeleted {
		return nil, repository.ErrBrandProductNotFound
	}
	found := *stored
	return &found, nil
}

func (r *brandProductRepo) FindByGenericItemID(ctx context.Context, genericItemID uuid.UUID) ([]*domain.BrandProduct, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.BrandProduct{}
	for _, stored := range r.store.brandProducts {
		if stored.IsDeleted || stored.GenericItemID != genericItemID {
			continue
		}
		found := *stored
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Brand != result[j].Brand {
			return result[i].Brand < result[j].Brand
		}
		return result[i].Presentation < result[j].Presentation
	})
	return result, nil
}

func (r *brandProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.BrandProduct, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.BrandProduct{}
	for _, id := range ids {
		stored, ok := r.store.brandProducts[id]
		if !ok || stored.IsDeleted {
			continue
		}
		found := *stored
		result = append(result, &found)
	}
	return result, nil
}

type priceObservationRepo struct {
	store *Store
}

// PriceObservations returns a PriceObservationRepository backed by the store
func (s *Store) PriceObservations() repository.PriceObservationRepository {
	return &priceObservationRepo{store: s}
}

func (r *priceObservationRepo) Create(ctx context.Context, obs *domain.PriceObservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *obs
	r.store.priceObservations[obs.ID] = &stored
	r.store.obsOrder[obs.ID] = r.store.nextSeq()
	return nil
}

func (r *priceObservationRepo) FindByBrandProduct(ctx context.Context, ownerID, brandProductID uuid.UUID) ([]*domain.PriceObservation, error) {
	return r.collect(func(obs *domain.PriceObservation) bool {
		return obs.OwnerUserID == ownerID && obs.BrandProductID == brandProductID
	})
}

func (r *priceObservationRepo) FindByBrandProducts(ctx context.Context, ownerID uuid.UUID, brandProductIDs []uuid.UUID) ([]*domain.PriceObservation, error) {
	wanted := idSet(brandProductIDs)
	return r.collect(func(obs *domain.PriceObservation) bool {
		return obs.OwnerUserID == ownerID && wanted[obs.BrandProductID]
	})
}

func (r *priceObservationRepo) FindBySupermarketAndBrands(ctx context.Context, ownerID, supermarketID uuid.UUID, brandProductIDs []uuid.UUID) ([]*domain.PriceObservation, error) {
	wanted := idSet(brandProductIDs)
	return r.collect(func(obs *domain.PriceObservation) bool {
		return obs.OwnerUserID == ownerID && obs.SupermarketID == supermarketID && wanted[obs.BrandProductID]
	})
}

// collect returns matching observations in chronological order, ties broken
// by insertion order to mirror the postgres backend.
func (r *priceObservationRepo) collect(match func(*domain.PriceObservation) bool) ([]*domain.PriceObservation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.PriceObservation{}
	for _, stored := range r.store.priceObservations {
		if stored.IsDeleted || !match(stored) {
			continue
		}
		found := *stored
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ObservedAt.Equal(result[j].ObservedAt) {
			return result[i].ObservedAt.Before(result[j].ObservedAt)
		}
		return r.store.obsOrder[result[i].ID] < r.store.obsOrder[result[j].ID]
	})
	return result, nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
