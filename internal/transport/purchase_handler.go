package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"despensa/internal/domain"
	"despensa/internal/middleware"
	"despensa/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePurchaseRequest represents the create-from-templates payload
type CreatePurchaseRequest struct {
	SupermarketID *string   `json:"supermarket_id" validate:"omitempty,uuid"`
	Date          time.Time `json:"date" validate:"required"`
	TemplateIDs   []string  `json:"template_ids" validate:"dive,uuid"`
}

// AddLineRequest represents the add-single-line payload
type AddLineRequest struct {
	GenericItemID string   `json:"generic_item_id" validate:"required,uuid"`
	UnitPrice     *float64 `json:"unit_price" validate:"omitempty,gt=0"`
}

// FinishPurchaseRequest represents the completion payload
type FinishPurchaseRequest struct {
	TotalPaid float64  `json:"total_paid" validate:"required,gt=0"`
	Subtotal  *float64 `json:"subtotal" validate:"omitempty,gte=0"`
	Discount  *float64 `json:"discount" validate:"omitempty,gte=0"`
	Tax       *float64 `json:"tax" validate:"omitempty,gte=0"`
}

// PurchaseHandler handles HTTP requests for purchases and purchase lines
type PurchaseHandler struct {
	purchaseService service.PurchaseService
	logger          *zap.Logger
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService service.PurchaseService, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		logger:          logger,
	}
}

// RegisterRoutes registers all purchase routes
func (h *PurchaseHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/api/purchases", func(r chi.Router) {
			r.Get("/", h.ListPurchases)
			r.Post("/", h.CreatePurchase)
			r.Get("/{id}", h.GetPurchase)
			r.Delete("/{id}", h.DeletePurchase)
			r.Post("/{id}/finish", h.FinishPurchase)

			r.Get("/{id}/lines", h.GetPurchaseLines)
			r.Post("/{id}/lines", h.AddPurchaseLine)
		})

		r.Route("/api/purchase-lines", func(r chi.Router) {
			r.Patch("/{id}", h.UpdateLine)
		})
	})
}

// ListPurchases returns the caller's purchases, newest first
func (h *PurchaseHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	purchases, err := h.purchaseService.ListPurchases(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list purchases")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, purchases)
}

// CreatePurchase creates a draft purchase seeded from templates
func (h *PurchaseHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreatePurchaseRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	var supermarketID *uuid.UUID
	if req.SupermarketID != nil {
		id, err := uuid.Parse(*req.SupermarketID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid supermarket id")
			return
		}
		supermarketID = &id
	}
	templateIDs := make([]uuid.UUID, 0, len(req.TemplateIDs))
	for _, raw := range req.TemplateIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid template id")
			return
		}
		templateIDs = append(templateIDs, id)
	}

	purchase, err := h.purchaseService.CreatePurchase(r.Context(), userID, supermarketID, req.Date, templateIDs)
	if err != nil {
		respondServiceError(w, h.logger, err, "create purchase")
		return
	}

	h.logger.Info("Purchase created",
		zap.String("purchase_id", purchase.ID.String()),
		zap.Int("templates", len(templateIDs)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, purchase)
}

// GetPurchase returns one purchase the caller owns
func (h *PurchaseHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	purchase, err := h.purchaseService.GetPurchase(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get purchase")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, purchase)
}

// GetPurchaseLines returns a purchase's lines in insertion order
func (h *PurchaseHandler) GetPurchaseLines(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	lines, err := h.purchaseService.GetPurchaseLines(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get purchase lines")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, lines)
}

// AddPurchaseLine appends a single line to a draft purchase
func (h *PurchaseHandler) AddPurchaseLine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	purchaseID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req AddLineRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	genericItemID, err := uuid.Parse(req.GenericItemID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid generic item id")
		return
	}

	line, err := h.purchaseService.AddPurchaseLine(r.Context(), userID, purchaseID, genericItemID, req.UnitPrice)
	if err != nil {
		respondServiceError(w, h.logger, err, "add purchase line")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, line)
}

// UpdateLine applies a partial update to a line of a draft purchase. Only
// fields present in the JSON body are touched; explicit nulls clear fields.
func (h *PurchaseHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	lineID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	updates, err := decodeLineUpdate(r)
	if err != nil {
		h.logger.Debug("Line update decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.purchaseService.UpdateLine(r.Context(), userID, lineID, updates)
	if err != nil {
		respondServiceError(w, h.logger, err, "update purchase line")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, line)
}

// FinishPurchase transitions a draft to completed
func (h *PurchaseHandler) FinishPurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	purchaseID, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req FinishPurchaseRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	purchase, err := h.purchaseService.FinishPurchase(r.Context(), userID, purchaseID, req.TotalPaid, req.Subtotal, req.Discount, req.Tax)
	if err != nil {
		respondServiceError(w, h.logger, err, "finish purchase")
		return
	}

	h.logger.Info("Purchase completed",
		zap.String("purchase_id", purchase.ID.String()),
		zap.Float64("total_paid", req.TotalPaid),
	)
	middleware.RespondWithJSON(w, http.StatusOK, purchase)
}

// DeletePurchase soft-deletes a purchase and its lines
func (h *PurchaseHandler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.purchaseService.DeletePurchase(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.logger, err, "delete purchase")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "purchase deleted"})
}

// decodeLineUpdate builds a tri-state LineUpdate from raw JSON: a key that is
// absent stays unset, an explicit null clears, a value sets.
func decodeLineUpdate(r *http.Request) (domain.LineUpdate, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return domain.LineUpdate{}, err
	}

	var updates domain.LineUpdate

	if msg, ok := raw["brand_product_id"]; ok {
		opt, err := optionalUUID(msg)
		if err != nil {
			return domain.LineUpdate{}, err
		}
		updates.BrandProductID = opt
	}
	if msg, ok := raw["qty"]; ok {
		opt, err := optionalFloat(msg)
		if err != nil {
			return domain.LineUpdate{}, err
		}
		updates.Qty = opt
	}
	if msg, ok := raw["unit_id"]; ok {
		opt, err := optionalUUID(msg)
		if err != nil {
			return domain.LineUpdate{}, err
		}
		updates.UnitID = opt
	}
	if msg, ok := raw["unit_price"]; ok {
		opt, err := optionalFloat(msg)
		if err != nil {
			return domain.LineUpdate{}, err
		}
		updates.UnitPrice = opt
	}
	if msg, ok := raw["checked"]; ok {
		if isJSONNull(msg) {
			updates.Checked = domain.SetNull[bool]()
		} else {
			var v bool
			if err := json.Unmarshal(msg, &v); err != nil {
				return domain.LineUpdate{}, err
			}
			updates.Checked = domain.Set(v)
		}
	}
	if msg, ok := raw["line_amount_override"]; ok {
		opt, err := optionalFloat(msg)
		if err != nil {
			return domain.LineUpdate{}, err
		}
		updates.LineAmountOverride = opt
	}
	if msg, ok := raw["note"]; ok {
		if isJSONNull(msg) {
			updates.Note = domain.SetNull[string]()
		} else {
			var v string
			if err := json.Unmarshal(msg, &v); err != nil {
				return domain.LineUpdate{}, err
			}
			updates.Note = domain.Set(v)
		}
	}

	return updates, nil
}

func optionalUUID(msg json.RawMessage) (domain.Optional[uuid.UUID], error) {
	if isJSONNull(msg) {
		return domain.SetNull[uuid.UUID](), nil
	}
	var raw string
	if err := json.Unmarshal(msg, &raw); err != nil {
		return domain.Optional[uuid.UUID]{}, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return domain.Optional[uuid.UUID]{}, err
	}
	return domain.Set(id), nil
}

func optionalFloat(msg json.RawMessage) (domain.Optional[float64], error) {
	if isJSONNull(msg) {
		return domain.SetNull[float64](), nil
	}
	var v float64
	if err := json.Unmarshal(msg, &v); err != nil {
		return domain.Optional[float64]{}, err
	}
	return domain.Set(v), nil
}

func isJSONNull(msg json.RawMessage) bool {
	return string(msg) == "null"
}
