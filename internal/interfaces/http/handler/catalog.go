package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appcatalog "github.com/tokoroti/backend/internal/application/catalog"
	"github.com/tokoroti/backend/internal/interfaces/http/dto"
	"github.com/tokoroti/backend/internal/interfaces/http/middleware"
)

// CatalogHandler exposes the product catalog over the admin API
type CatalogHandler struct {
	BaseHandler
	products *appcatalog.ProductService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(products *appcatalog.ProductService) *CatalogHandler {
	return &CatalogHandler{products: products}
}

// ListProducts returns products matching the filter
// GET /api/v1/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := req.ToFilter()
	products, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, products, filter.Page, filter.PageSize, len(products))
}

// GetProduct returns one product with its recipe
// GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// CreateProduct adds a new product
// POST /api/v1/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req appcatalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	product, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// UpdateProduct changes an existing product
// PUT /api/v1/products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	id, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req appcatalog.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	product, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}
