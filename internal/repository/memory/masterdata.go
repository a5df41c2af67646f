package memory

import (
	"context"
	"sort"
	"time"

	"despensa/internal/domain"
	"despensa/internal/repository"

	"github.com/google/uuid"
)

type supermarketRepo struct {
	store *Store
}

// Supermarkets returns a SupermarketRepository backed by the store
func (s *Store) Supermarkets() repository.SupermarketRepository {
	return &supermarketRepo{store: s}
}

func (r *supermarketRepo) Create(ctx context.Context, s *domain.Supermarket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *s
	r.store.supermarkets[s.ID] = &stored
	return nil
}

func (r *supermarketRepo) Update(ctx context.Context, s *domain.Supermarket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.supermarkets[s.ID]
	if !ok || stored.IsDeleted {
		return repository.ErrSupermarketNotFound
	}
	updated := *s
	r.store.supermarkets[s.ID] = &updated
	return nil
}

func (r *supermarketRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.supermarkets[id]
	if !ok || stored.IsDeleted {
		return repository.ErrSupermarketNotFound
	}
	stored.IsDeleted = true
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *supermarketRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Supermarket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.supermarkets[id]
	if !ok || stored.IsDeleted {
		return nil, repository.ErrSupermarketNotFound
	}
	found := *stored
	return &found, nil
}

func (r *supermarketRepo) FindAllBaseAndUser(ctx context.Context, userID uuid.UUID) ([]*domain.Supermarket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.Supermarket{}
	for _, stored := range r.store.supermarkets {
		if stored.IsDeleted {
			continue
		}
		if stored.OwnerUserID == nil || *stored.OwnerUserID == userID {
			found := *stored
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type categoryRepo struct {
	store *Store
}

// Categories returns a CategoryRepository backed by the store
func (s *Store) Categories() repository.CategoryRepository {
	return &categoryRepo{store: s}
}

func (r *categoryRepo) Create(ctx context.Context, c *domain.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *c
	r.store.categories[c.ID] = &stored
	return nil
}

func (r *categoryRepo) Update(ctx context.Context, c *domain.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.categories[c.ID]
	if !ok || stored.IsDeleted {
		return repository.ErrCategoryNotFound
	}
	updated := *c
	r.store.categories[c.ID] = &updated
	return nil
}

func (r *categoryRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.categories[id]
	if !ok || stored.IsDeleted {
		return repository.ErrCategoryNotFound
	}
	stored.IsDeleted = true
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.categories[id]
	if !ok || stored.IsDeleted {
		return nil, repository.ErrCategoryNotFound
	}
	found := *stored
	return &found, nil
}

func (r *categoryRepo) FindAllBaseAndUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.Category{}
	for _, stored := range r.store.categories {
		if stored.IsDeleted {
			continue
		}
		if stored.OwnerUserID == nil || *stored.OwnerUserID == userID {
			found := *stored
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type unitRepo struct {
	store *Store
}

// Units returns a UnitRepository backed by the store
func (s *Store) Units() repository.UnitRepository {
	return &unitRepo{store: s}
}

func (r *unitRepo) Create(ctx context.Context, u *domain.Unit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *u
	r.store.units[u.ID] = &stored
	return nil
}

func (r *unitRepo) Update(ctx context.Context, u *domain.Unit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.units[u.ID]
	if !ok || stored.IsDeleted {
		return repository.ErrUnitNotFound
	}
	updated := *u
	r.store.units[u.ID] = &updated
	return nil
}

func (r *unitRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.units[id]
	if !ok || stored.IsDeleted {
		return repository.ErrUnitNotFound
	}
	stored.IsDeleted = true
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *unitRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Unit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.units[id]
	if !ok || stored.IsDeleted {
		return nil, repository.ErrUnitNotFound
	}
	found := *stored
	return &found, nil
}

func (r *unitRepo) FindAllBaseAndUser(ctx context.Context, userID uuid.UUID) ([]*domain.Unit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.Unit{}
	for _, stored := range r.store.units {
		if stored.IsDeleted {
			continue
		}
		if stored.OwnerUserID == nil || *stored.OwnerUserID == userID {
			found := *stored
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
