package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apporder "github.com/tokoroti/backend/internal/application/order"
	"github.com/tokoroti/backend/internal/interfaces/http/dto"
	"github.com/tokoroti/backend/internal/interfaces/http/middleware"
)

// OrderHandler exposes order tracking and fulfillment over the admin API.
// Orders are created through the chat flow; this API moves them through
// their lifecycle.
type OrderHandler struct {
	BaseHandler
	orders *apporder.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *apporder.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ListOrders returns orders matching the filter
// GET /api/v1/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := req.ToFilter()
	orders, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, filter.Page, filter.PageSize, len(orders))
}

// GetOrder returns one order with items and lot usage trace
// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// ListCustomerOrders returns a customer's active orders, oldest first
// GET /api/v1/customers/:customer_id/orders
func (h *OrderHandler) ListCustomerOrders(c *gin.Context) {
	customerID := c.Param("customer_id")
	if customerID == "" {
		h.BadRequest(c, "customer_id is required")
		return
	}

	orders, err := h.orders.ListActiveByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, orders)
}

// UpdateStatus moves an order through its lifecycle. Moving to On Process
// converts the reservation into FEFO lot deductions; cancelling releases it.
// PATCH /api/v1/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	var req apporder.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// RetryPending retries stock reservation for all pending orders, oldest
// first, and returns the orders that were accepted
// POST /api/v1/orders/retry-pending
func (h *OrderHandler) RetryPending(c *gin.Context) {
	accepted, err := h.orders.RetryPending(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, accepted)
}

func (h *OrderHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return uuid.Nil, false
	}
	return id, true
}
