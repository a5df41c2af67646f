package transport

import (
	"net/http"
	"time"

	"despensa/internal/middleware"
	"despensa/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenericItemRequest represents the generic item create/update payload
type GenericItemRequest struct {
	CanonicalName        string   `json:"canonical_name" validate:"required"`
	Aliases              []string `json:"aliases"`
	PrimaryCategoryID    *string  `json:"primary_category_id" validate:"omitempty,uuid"`
	SecondaryCategoryIDs []string `json:"secondary_category_ids" validate:"dive,uuid"`
	ImageURL             string   `json:"image_url"`
	GlobalPrice          *float64 `json:"global_price" validate:"omitempty,gt=0"`
}

// BrandProductRequest represents the brand product create/update payload
type BrandProductRequest struct {
	Brand        string   `json:"brand" validate:"required"`
	Presentation string   `json:"presentation"`
	ImageURL     string   `json:"image_url"`
	GlobalPrice  *float64 `json:"global_price" validate:"omitempty,gt=0"`
}

// PriceObservationRequest represents a manual price observation payload.
// A null unit_price records "seen, price unknown".
type PriceObservationRequest struct {
	SupermarketID string    `json:"supermarket_id" validate:"required,uuid"`
	UnitPrice     *float64  `json:"unit_price" validate:"omitempty,gt=0"`
	ObservedAt    time.Time `json:"observed_at" validate:"required"`
}

// CatalogHandler handles HTTP requests for generic items, brand products and
// price observations
type CatalogHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(productService service.ProductService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/api/generic-items", func(r chi.Router) {
			r.Get("/", h.ListGenericItems)
			r.Post("/", h.CreateGenericItem)
			r.Get("/{id}", h.GetGenericItem)
			r.Put("/{id}", h.UpdateGenericItem)
			r.Delete("/{id}", h.DeleteGenericItem)

			r.Get("/{id}/brand-products", h.ListBrandProducts)
			r.Post("/{id}/brand-products", h.CreateBrandProduct)
		})

		r.Route("/api/brand-products", func(r chi.Router) {
			r.Put("/{id}", h.UpdateBrandProduct)
			r.Delete("/{id}", h.DeleteBrandProduct)
			r.Post("/{id}/prices", h.RecordPriceObservation)
		})
	})
}

// ListGenericItems returns the caller's generic items
func (h *CatalogHandler) ListGenericItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	items, err := h.productService.ListGenericItems(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list generic items")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// CreateGenericItem creates a generic item owned by the caller
func (h *CatalogHandler) CreateGenericItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req GenericItemRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	item, err := h.productService.CreateGenericItem(r.Context(), userID, input)
	if err != nil {
		respondServiceError(w, h.logger, err, "create generic item")
		return
	}

	h.logger.Info("Generic item created", zap.String("generic_item_id", item.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

// GetGenericItem returns one generic item the caller owns
func (h *CatalogHandler) GetGenericItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	item, err := h.productService.GetGenericItem(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get generic item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// UpdateGenericItem updates a generic item the caller owns
func (h *CatalogHandler) UpdateGenericItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req GenericItemRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	item, err := h.productService.UpdateGenericItem(r.Context(), userID, id, input)
	if err != nil {
		respondServiceError(w, h.logger, err, "update generic item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// DeleteGenericItem soft-deletes a generic item the caller owns
func (h *CatalogHandler) DeleteGenericItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.productService.DeleteGenericItem(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.logger, err, "delete generic item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "generic item deleted"})
}

// ListBrandProducts returns the brand products of one generic item
func (h *CatalogHandler) ListBrandProducts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	genericItemID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	products, err := h.productService.ListBrandProducts(r.Context(), userID, genericItemID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list brand products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// CreateBrandProduct creates a brand product under a generic item
func (h *CatalogHandler) CreateBrandProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	genericItemID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req BrandProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product, err := h.productService.CreateBrandProduct(r.Context(), userID, genericItemID, service.BrandProductInput{
		Brand:        req.Brand,
		Presentation: req.Presentation,
		ImageURL:     req.ImageURL,
		GlobalPrice:  req.GlobalPrice,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "create brand product")
		return
	}

	h.logger.Info("Brand product created", zap.String("brand_product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateBrandProduct updates a brand product the caller owns
func (h *CatalogHandler) UpdateBrandProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req BrandProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product, err := h.productService.UpdateBrandProduct(r.Context(), userID, id, service.BrandProductInput{
		Brand:        req.Brand,
		Presentation: req.Presentation,
		ImageURL:     req.ImageURL,
		GlobalPrice:  req.GlobalPrice,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "update brand product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteBrandProduct soft-deletes a brand product the caller owns
func (h *CatalogHandler) DeleteBrandProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.productService.DeleteBrandProduct(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.logger, err, "delete brand product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "brand product deleted"})
}

// RecordPriceObservation appends a manual price observation for a brand product
func (h *CatalogHandler) RecordPriceObservation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	brandProductID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req PriceObservationRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	supermarketID, err := uuid.Parse(req.SupermarketID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid supermarket id")
		return
	}

	obs, err := h.productService.RecordPriceObservation(r.Context(), userID, brandProductID, supermarketID, req.UnitPrice, req.ObservedAt)
	if err != nil {
		respondServiceError(w, h.logger, err, "record price observation")
		return
	}

	h.logger.Info("Price observation recorded",
		zap.String("brand_product_id", brandProductID.String()),
		zap.String("supermarket_id", supermarketID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, obs)
}

func (req *GenericItemRequest) toInput() (service.GenericItemInput, error) {
	input := service.GenericItemInput{
		CanonicalName: req.CanonicalName,
		Aliases:       req.Aliases,
		ImageURL:      req.ImageURL,
		GlobalPrice:   req.GlobalPrice,
	}

	if req.PrimaryCategoryID != nil {
		id, err := uuid.Parse(*req.PrimaryCategoryID)
		if err != nil {
			return service.GenericItemInput{}, err
		}
		input.PrimaryCategoryID = &id
	}
	for _, raw := range req.SecondaryCategoryIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return service.GenericItemInput{}, err
		}
		input.SecondaryCategoryIDs = append(input.SecondaryCategoryIDs, id)
	}

	return input, nil
}
