package transport

import (
	"net/http"
	"strconv"

	"despensa/internal/middleware"
	"despensa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultMonthsBack = 6

// AnalyticsHandler handles HTTP requests for spending and price analytics
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	logger           *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// RegisterRoutes registers all analytics routes
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/api/analytics", func(r chi.Router) {
			r.Get("/monthly-expenses", h.MonthlyExpenses)
			r.Get("/category-spending", h.CategorySpending)
			r.Get("/frequent-products", h.FrequentProducts)
			r.Get("/price-history/{brandProductId}", h.PriceHistory)
			r.Get("/latest-prices/{brandProductId}", h.LatestPrices)
			r.Get("/generic-latest-prices/{genericItemId}", h.GenericLatestPrices)
		})
	})
}

// MonthlyExpenses returns per-month spending totals and the average.
// ?months=N controls the window (default 6).
func (h *AnalyticsHandler) MonthlyExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	monthsBack := defaultMonthsBack
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			middleware.RespondWithError(w, http.StatusBadRequest, "months must be a positive integer")
			return
		}
		monthsBack = parsed
	}

	result, err := h.analyticsService.MonthlyExpenses(r.Context(), userID, monthsBack)
	if err != nil {
		respondServiceError(w, h.logger, err, "compute monthly expenses")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// CategorySpending returns spending per category with percentages
func (h *AnalyticsHandler) CategorySpending(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.analyticsService.CategorySpending(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "compute category spending")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// FrequentProducts returns the top-10 generic and brand rankings.
// ?mode=count|units selects the tally (default count).
func (h *AnalyticsHandler) FrequentProducts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	mode := service.FrequencyByCount
	switch r.URL.Query().Get("mode") {
	case "", "count":
	case "units":
		mode = service.FrequencyByUnits
	default:
		middleware.RespondWithError(w, http.StatusBadRequest, "mode must be count or units")
		return
	}

	result, err := h.analyticsService.FrequentProducts(r.Context(), userID, mode)
	if err != nil {
		respondServiceError(w, h.logger, err, "compute frequent products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// PriceHistory returns a brand product's observations in chronological order
func (h *AnalyticsHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	brandProductID, ok := pathUUID(w, chi.URLParam(r, "brandProductId"))
	if !ok {
		return
	}

	history, err := h.analyticsService.PriceHistory(r.Context(), userID, brandProductID)
	if err != nil {
		respondServiceError(w, h.logger, err, "load price history")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, history)
}

// LatestPrices returns the latest known price per supermarket for a brand
func (h *AnalyticsHandler) LatestPrices(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	brandProductID, ok := pathUUID(w, chi.URLParam(r, "brandProductId"))
	if !ok {
		return
	}

	prices, err := h.analyticsService.LatestPrices(r.Context(), userID, brandProductID)
	if err != nil {
		respondServiceError(w, h.logger, err, "load latest prices")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, prices)
}

// GenericLatestPrices returns the best current price per supermarket across
// all brands of a generic item
func (h *AnalyticsHandler) GenericLatestPrices(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	genericItemID, ok := pathUUID(w, chi.URLParam(r, "genericItemId"))
	if !ok {
		return
	}

	prices, err := h.analyticsService.GenericLatestPrices(r.Context(), userID, genericItemID)
	if err != nil {
		respondServiceError(w, h.logger, err, "load generic latest prices")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, prices)
}
