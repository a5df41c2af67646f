package memory

import (
	"context"
	"sort"
	"time"

	"despensa/internal/domain"
	"despensa/internal/repository"

	"github.com/google/uuid"
)

type templateRepo struct {
	store *Store
}

// Templates returns a TemplateRepository backed by the store
func (s *Store) Templates() repository.TemplateRepository {
	return &templateRepo{store: s}
}

func (r *templateRepo) Create(ctx context.Context, template *domain.Template) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *template
	r.store.templates[template.ID] = &stored
	return nil
}

func (r *templateRepo) Update(ctx context.Context, template *domain.Template) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.templates[template.ID]
	if !ok || stored.IsDeleted {
		return repository.ErrTemplateNotFound
	}
	updated := *template
	r.store.templates[template.ID] = &updated
	return nil
}

func (r *templateRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.templates[id]
	if !ok || stored.IsDeleted {
		return repository.ErrTemplateNotFound
	}
	stored.IsDeleted = true
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *templateRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.templates[id]
	if !ok || stored.IsDeleted {
		return nil, repository.ErrTemplateNotFound
	}
	found := *stored
	return &found, nil
}

func (r *templateRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Template, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.Template{}
	for _, stored := range r.store.templates {
		if stored.IsDeleted || stored.OwnerUserID != ownerID {
			continue
		}
		found := *stored
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type templateItemRepo struct {
	store *Store
}

// TemplateItems returns a TemplateItemRepository backed by the store
func (s *Store) TemplateItems() repository.TemplateItemRepository {
	return &templateItemRepo{store: s}
}

func (r *templateItemRepo) Create(ctx context.Context, item *domain.TemplateItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *item
	r.store.templateItems[item.ID] = &stored
	return nil
}

func (r *templateItemRepo) Update(ctx context.Context, item *domain.TemplateItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.templateItems[item.ID]
	if !ok || stored.IsDeleted {
		return repository.ErrTemplateItemNotFound
	}
	updated := *item
	r.store.templateItems[item.ID] = &updated
	return nil
}

func (r *templateItemRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.templateItems[id]
	if !ok || stored.IsDeleted {
		return repository.ErrTemplateItemNotFound
	}
	stored.IsDeleted = true
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *templateItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.TemplateItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.templateItems[id]
	if !ok || stored.IsDeleted {
		return nil, repository.ErrTemplateItemNotFound
	}
	found := *stored
	return &found, nil
}

func (r *templateItemRepo) FindByTemplateID(ctx context.Context, templateID uuid.UUID) ([]*domain.TemplateItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []*domain.TemplateItem{}
	for _, stored := range r.store.templateItems {
		if stored.IsDeleted || stored.TemplateID != templateID {
			continue
		}
		found := *stored
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}
