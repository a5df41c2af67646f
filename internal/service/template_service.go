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

// TemplateItemInput carries the writable fields of a template entry
type TemplateItemInput struct {
	GenericItemID uuid.UUID
	DefaultQty    *float64
	DefaultUnitID *uuid.UUID
}

// TemplateService manages reusable shopping-list skeletons and their ordered
// items. Templates are owner-scoped; item order is explicit and survives
// removals.
type TemplateService interface {
	CreateTemplate(ctx context.Context, userID uuid.UUID, name string, tags []string) (*domain.Template, error)
	UpdateTemplate(ctx context.Context, userID, id uuid.UUID, name string, tags []string) (*domain.Template, error)
	DeleteTemplate(ctx context.Context, userID, id uuid.UUID) error
	GetTemplate(ctx context.Context, userID, id uuid.UUID) (*domain.Template, error)
	ListTemplates(ctx context.Context, userID uuid.UUID) ([]*domain.Template, error)

	AddItem(ctx context.Context, userID, templateID uuid.UUID, input TemplateItemInput) (*domain.TemplateItem, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input TemplateItemInput) (*domain.TemplateItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	ListItems(ctx context.Context, userID, templateID uuid.UUID) ([]*domain.TemplateItem, error)
	ReorderItems(ctx context.Context, userID, templateID uuid.UUID, itemIDs []uuid.UUID) ([]*domain.TemplateItem, error)
}

type templateService struct {
	templateRepo repository.TemplateRepository
	itemRepo     repository.TemplateItemRepository
}

// NewTemplateService creates a new instance of TemplateService
func NewTemplateService(
	templateRepo repository.TemplateRepository,
	itemRepo repository.TemplateItemRepository,
) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		itemRepo:     itemRepo,
	}
}

func (s *templateService) CreateTemplate(ctx context.Context, userID uuid.UUID, name string, tags []string) (*domain.Template, error) {
	now := time.Now()
	template := &domain.Template{
		ID:          uuid.New(),
		OwnerUserID: userID,
		Name:        name,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return template, nil
}

func (s *templateService) UpdateTemplate(ctx context.Context, userID, id uuid.UUID, name string, tags []string) (*domain.Template, error) {
	template, err := s.ownedTemplate(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	template.Name = name
	template.Tags = tags
	template.UpdatedAt = time.Now()
	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.ownedTemplate(ctx, userID, id); err != nil {
		return err
	}

	// Items go with the template so listings never show orphans.
	items, err := s.itemRepo.FindByTemplateID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load template items: %w", err)
	}
	for _, item := range items {
		if err := s.itemRepo.SoftDelete(ctx, item.ID); err != nil {
			return fmt.Errorf("failed to delete template item: %w", err)
		}
	}

	if err := s.templateRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

func (s *templateService) GetTemplate(ctx context.Context, userID, id uuid.UUID) (*domain.Template, error) {
	return s.ownedTemplate(ctx, userID, id)
}

func (s *templateService) ListTemplates(ctx context.Context, userID uuid.UUID) ([]*domain.Template, error) {
	templates, err := s.templateRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// AddItem appends to the end of the template's ordering.
func (s *templateService) AddItem(ctx context.Context, userID, templateID uuid.UUID, input TemplateItemInput) (*domain.TemplateItem, error) {
	if _, err := s.ownedTemplate(ctx, userID, templateID); err != nil {
		return nil, err
	}

	existing, err := s.itemRepo.FindByTemplateID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template items: %w", err)
	}
	nextOrder := 0
	for _, item := range existing {
		if item.SortOrder >= nextOrder {
			nextOrder = item.SortOrder + 1
		}
	}

	now := time.Now()
	item := &domain.TemplateItem{
		ID:            uuid.New(),
		TemplateID:    templateID,
		GenericItemID: input.GenericItemID,
		DefaultQty:    input.DefaultQty,
		DefaultUnitID: input.DefaultUnitID,
		SortOrder:     nextOrder,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create template item: %w", err)
	}
	return item, nil
}

func (s *templateService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input TemplateItemInput) (*domain.TemplateItem, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	item.GenericItemID = input.GenericItemID
	item.DefaultQty = input.DefaultQty
	item.DefaultUnitID = input.DefaultUnitID
	item.UpdatedAt = time.Now()
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update template item: %w", err)
	}
	return item, nil
}

func (s *templateService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.itemRepo.SoftDelete(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete template item: %w", err)
	}
	return nil
}

func (s *templateService) ListItems(ctx context.Context, userID, templateID uuid.UUID) ([]*domain.TemplateItem, error) {
	if _, err := s.ownedTemplate(ctx, userID, templateID); err != nil {
		return nil, err
	}
	items, err := s.itemRepo.FindByTemplateID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list template items: %w", err)
	}
	return items, nil
}

// ReorderItems rewrites sort order to match itemIDs. Every current item must
// appear exactly once.
func (s *templateService) ReorderItems(ctx context.Context, userID, templateID uuid.UUID, itemIDs []uuid.UUID) ([]*domain.TemplateItem, error) {
	if _, err := s.ownedTemplate(ctx, userID, templateID); err != nil {
		return nil, err
	}

	items, err := s.itemRepo.FindByTemplateID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template items: %w", err)
	}
	byID := make(map[uuid.UUID]*domain.TemplateItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	if len(itemIDs) != len(items) {
		return nil, validationf("reorder must list all %d items", len(items))
	}

	now := time.Now()
	ordered := make([]*domain.TemplateItem, 0, len(itemIDs))
	for position, id := range itemIDs {
		item, ok := byID[id]
		if !ok {
			return nil, validationf("item %s does not belong to template", id)
		}
		delete(byID, id)
		item.SortOrder = position
		item.UpdatedAt = now
		if err := s.itemRepo.Update(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to update template item: %w", err)
		}
		ordered = append(ordered, item)
	}
	return ordered, nil
}

func (s *templateService) ownedTemplate(ctx context.Context, userID, id uuid.UUID) (*domain.Template, error) {
	template, err := s.templateRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return nil, notFoundf("template %s", id)
		}
		return nil, fmt.Errorf("failed to find template: %w", err)
	}
	if template.OwnerUserID != userID {
		return nil, notFoundf("template %s", id)
	}
	return template, nil
}

func (s *templateService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.TemplateItem, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateItemNotFound) {
			return nil, notFoundf("template item %s", itemID)
		}
		return nil, fmt.Errorf("failed to find template item: %w", err)
	}
	if _, err := s.ownedTemplate(ctx, userID, item.TemplateID); err != nil {
		return nil, notFoundf("template item %s", itemID)
	}
	return item, nil
}
