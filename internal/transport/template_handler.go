package transport

import (
	"net/http"

	"despensa/internal/middleware"
	"despensa/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateRequest represents the template create/update payload
type TemplateRequest struct {
	Name string   `json:"name" validate:"required"`
	Tags []string `json:"tags"`
}

// TemplateItemRequest represents a template item create/update payload
type TemplateItemRequest struct {
	GenericItemID string   `json:"generic_item_id" validate:"required,uuid"`
	DefaultQty    *float64 `json:"default_qty" validate:"omitempty,gt=0"`
	DefaultUnitID *string  `json:"default_unit_id" validate:"omitempty,uuid"`
}

// ReorderItemsRequest lists every item of a template in its new order
type ReorderItemsRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,dive,uuid"`
}

// TemplateHandler handles HTTP requests for templates and template items
type TemplateHandler struct {
	templateService service.TemplateService
	logger          *zap.Logger
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(templateService service.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		logger:          logger,
	}
}

// RegisterRoutes registers all template routes
func (h *TemplateHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/api/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)
			r.Get("/{id}", h.GetTemplate)
			r.Put("/{id}", h.UpdateTemplate)
			r.Delete("/{id}", h.DeleteTemplate)

			r.Get("/{id}/items", h.ListItems)
			r.Post("/{id}/items", h.AddItem)
			r.Put("/{id}/items/reorder", h.ReorderItems)
		})

		r.Route("/api/template-items", func(r chi.Router) {
			r.Put("/{id}", h.UpdateItem)
			r.Delete("/{id}", h.RemoveItem)
		})
	})
}

// ListTemplates returns the caller's templates
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	templates, err := h.templateService.ListTemplates(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list templates")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, templates)
}

// CreateTemplate creates a template owned by the caller
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req TemplateRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	template, err := h.templateService.CreateTemplate(r.Context(), userID, req.Name, req.Tags)
	if err != nil {
		respondServiceError(w, h.logger, err, "create template")
		return
	}

	h.logger.Info("Template created", zap.String("template_id", template.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, template)
}

// GetTemplate returns one template the caller owns
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	template, err := h.templateService.GetTemplate(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get template")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, template)
}

// UpdateTemplate updates a template the caller owns
func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req TemplateRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	template, err := h.templateService.UpdateTemplate(r.Context(), userID, id, req.Name, req.Tags)
	if err != nil {
		respondServiceError(w, h.logger, err, "update template")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, template)
}

// DeleteTemplate soft-deletes a template and its items
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.templateService.DeleteTemplate(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.logger, err, "delete template")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "template deleted"})
}

// ListItems returns a template's items in sort order
func (h *TemplateHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	templateID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	items, err := h.templateService.ListItems(r.Context(), userID, templateID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list template items")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// AddItem appends an item to the template
func (h *TemplateHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	templateID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req TemplateItemRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id in request")
		return
	}

	item, err := h.templateService.AddItem(r.Context(), userID, templateID, input)
	if err != nil {
		respondServiceError(w, h.logger, err, "add template item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

// UpdateItem updates one template item
func (h *TemplateHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req TemplateItemRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id in request")
		return
	}

	item, err := h.templateService.UpdateItem(r.Context(), userID, itemID, input)
	if err != nil {
		respondServiceError(w, h.logger, err, "update template item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// RemoveItem soft-deletes one template item
func (h *TemplateHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.templateService.RemoveItem(r.Context(), userID, itemID); err != nil {
		respondServiceError(w, h.logger, err, "remove template item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "template item removed"})
}

// ReorderItems rewrites the sort order of a template's items
func (h *TemplateHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	templateID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ReorderItemsRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	itemIDs := make([]uuid.UUID, 0, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
			return
		}
		itemIDs = append(itemIDs, id)
	}

	items, err := h.templateService.ReorderItems(r.Context(), userID, templateID, itemIDs)
	if err != nil {
		respondServiceError(w, h.logger, err, "reorder template items")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}

func (req *TemplateItemRequest) toInput() (service.TemplateItemInput, error) {
	genericItemID, err := uuid.Parse(req.GenericItemID)
	if err != nil {
		return service.TemplateItemInput{}, err
	}

	input := service.TemplateItemInput{
		GenericItemID: genericItemID,
		DefaultQty:    req.DefaultQty,
	}
	if req.DefaultUnitID != nil {
		unitID, err := uuid.Parse(*req.DefaultUnitID)
		if err != nil {
			return service.TemplateItemInput{}, err
		}
		input.DefaultUnitID = &unitID
	}
	return input, nil
}
