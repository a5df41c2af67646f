package transport

import (
	"net/http"

	"despensa/internal/middleware"
	"despensa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SupermarketRequest represents the supermarket create/update payload
type SupermarketRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

// CategoryRequest represents the category create/update payload
type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
	Icon string `json:"icon"`
}

// UnitRequest represents the unit create/update payload
type UnitRequest struct {
	Name         string `json:"name" validate:"required"`
	Abbreviation string `json:"abbreviation" validate:"required"`
}

// MasterDataHandler handles HTTP requests for supermarkets, categories and units
type MasterDataHandler struct {
	masterDataService service.MasterDataService
	logger            *zap.Logger
}

// NewMasterDataHandler creates a new MasterDataHandler
func NewMasterDataHandler(masterDataService service.MasterDataService, logger *zap.Logger) *MasterDataHandler {
	return &MasterDataHandler{
		masterDataService: masterDataService,
		logger:            logger,
	}
}

// RegisterRoutes registers all master data routes
func (h *MasterDataHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/api/supermarkets", func(r chi.Router) {
			r.Get("/", h.ListSupermarkets)
			r.Post("/", h.CreateSupermarket)
			r.Put("/{id}", h.UpdateSupermarket)
			r.Delete("/{id}", h.DeleteSupermarket)
		})

		r.Route("/api/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/api/units", func(r chi.Router) {
			r.Get("/", h.ListUnits)
			r.Post("/", h.CreateUnit)
			r.Put("/{id}", h.UpdateUnit)
			r.Delete("/{id}", h.DeleteUnit)
		})
	})
}

// ListSupermarkets returns base supermarkets plus the caller's own
func (h *MasterDataHandler) ListSupermarkets(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	supermarkets, err := h.masterDataService.ListSupermarkets(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list supermarkets")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, supermarkets)
}

// CreateSupermarket creates a supermarket owned by the caller
func (h *MasterDataHandler) CreateSupermarket(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req SupermarketRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	supermarket, err := h.masterDataService.CreateSupermarket(r.Context(), userID, req.Name, req.Address)
	if err != nil {
		respondServiceError(w, h.logger, err, "create supermarket")
		return
	}

	h.logger.Info("Supermarket created", zap.String("supermarket_id", supermarket.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, supermarket)
}

// UpdateSupermarket updates a supermarket the caller owns
func (h *MasterDataHandler) UpdateSupermarket(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req SupermarketRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	supermarket, err := h.masterDataService.UpdateSupermarket(r.Context(), userID, id, req.Name, req.Address)
	if err != nil {
		respondServiceError(w, h.logger, err, "update supermarket")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, supermarket)
}

// DeleteSupermarket soft-deletes a supermarket the caller owns
func (h *MasterDataHandler) DeleteSupermarket(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.masterDataService.DeleteSupermarket(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.logger, err, "delete supermarket")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "supermarket deleted"})
}

// ListCategories returns base categories plus the caller's own
func (h *MasterDataHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	categories, err := h.masterDataService.ListCategories(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// CreateCategory creates a category owned by the caller
func (h *MasterDataHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	category, err := h.masterDataService.CreateCategory(r.Context(), userID, req.Name, req.Icon)
	if err != nil {
		respondServiceError(w, h.logger, err, "create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// UpdateCategory updates a category the caller owns
func (h *MasterDataHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	category, err := h.masterDataService.UpdateCategory(r.Context(), userID, id, req.Name, req.Icon)
	if err != nil {
		respondServiceError(w, h.logger, err, "update category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// DeleteCategory soft-deletes a category the caller owns
func (h *MasterDataHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.masterDataService.DeleteCategory(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.logger, err, "delete category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// ListUnits returns base units plus the caller's own
func (h *MasterDataHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	units, err := h.masterDataService.ListUnits(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list units")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, units)
}

// CreateUnit creates a unit owned by the caller
func (h *MasterDataHandler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req UnitRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	unit, err := h.masterDataService.CreateUnit(r.Context(), userID, req.Name, req.Abbreviation)
	if err != nil {
		respondServiceError(w, h.logger, err, "create unit")
		return
	}

	h.logger.Info("Unit created", zap.String("unit_id", unit.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, unit)
}

// UpdateUnit updates a unit the caller owns
func (h *MasterDataHandler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UnitRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	unit, err := h.masterDataService.UpdateUnit(r.Context(), userID, id, req.Name, req.Abbreviation)
	if err != nil {
		respondServiceError(w, h.logger, err, "update unit")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, unit)
}

// DeleteUnit soft-deletes a unit the caller owns
func (h *MasterDataHandler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.masterDataService.DeleteUnit(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.logger, err, "delete unit")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "unit deleted"})
}
