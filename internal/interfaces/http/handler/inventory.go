package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/tokoroti/backend/internal/application/inventory"
	"github.com/tokoroti/backend/internal/interfaces/http/dto"
	"github.com/tokoroti/backend/internal/interfaces/http/middleware"
)

// InventoryHandler exposes ingredient stock operations over the admin API
type InventoryHandler struct {
	BaseHandler
	stock               *appinventory.StockService
	expiryWarningWindow time.Duration
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(stock *appinventory.StockService, expiryWarningWindow time.Duration) *InventoryHandler {
	return &InventoryHandler{
		stock:               stock,
		expiryWarningWindow: expiryWarningWindow,
	}
}

// ListIngredients returns ingredients matching the filter
// GET /api/v1/ingredients
func (h *InventoryHandler) ListIngredients(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := req.ToFilter()
	ingredients, err := h.stock.ListIngredients(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, ingredients, filter.Page, filter.PageSize, len(ingredients))
}

// GetIngredient returns one ingredient with its stock posture
// GET /api/v1/ingredients/:id
func (h *InventoryHandler) GetIngredient(c *gin.Context) {
	id, ok := h.ingredientID(c)
	if !ok {
		return
	}

	ingredient, err := h.stock.GetIngredient(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ingredient)
}

// ListBelowMinimum returns ingredients under their alert threshold
// GET /api/v1/ingredients/below-minimum
func (h *InventoryHandler) ListBelowMinimum(c *gin.Context) {
	ingredients, err := h.stock.ListBelowMinimum(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ingredients)
}

// CreateIngredient registers a new raw material
// POST /api/v1/ingredients
func (h *InventoryHandler) CreateIngredient(c *gin.Context) {
	var req appinventory.CreateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	ingredient, err := h.stock.CreateIngredient(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ingredient)
}

// Replenish registers a new delivery lot for an ingredient
// POST /api/v1/ingredients/replenish
func (h *InventoryHandler) Replenish(c *gin.Context) {
	var req appinventory.ReplenishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	ingredient, err := h.stock.Replenish(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ingredient)
}

// RecommendedLots previews which lots a deduction of the given quantity
// would draw from, earliest expiry first
// GET /api/v1/ingredients/:id/recommended-lots?quantity=2.5
func (h *InventoryHandler) RecommendedLots(c *gin.Context) {
	id, ok := h.ingredientID(c)
	if !ok {
		return
	}

	quantity, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil || quantity.LessThanOrEqual(decimal.Zero) {
		h.BadRequest(c, "quantity must be a positive number")
		return
	}

	lots, err := h.stock.RecommendedLots(c.Request.Context(), id, quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lots)
}

// ExpiringLots returns lots that still hold stock but expire within the
// warning window
// GET /api/v1/ingredients/expiring-lots
func (h *InventoryHandler) ExpiringLots(c *gin.Context) {
	window := h.expiryWarningWindow
	if raw := c.Query("within"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "within must be a positive duration, e.g. 168h")
			return
		}
		window = parsed
	}

	lots, err := h.stock.ExpiringLots(c.Request.Context(), window)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lots)
}

func (h *InventoryHandler) ingredientID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid ingredient ID")
		return uuid.Nil, false
	}
	return id, true
}
