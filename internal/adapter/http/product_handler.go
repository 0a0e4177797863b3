package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

type ProductHandler struct {
	catalog *usecase.Catalog
}

func NewProductHandler(catalog *usecase.Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type productReq struct {
	Name        string          `json:"productName"`
	Description string          `json:"productDescription"`
	Type        int             `json:"productType"`
	Quantity    int             `json:"productQuantity"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"productImage"`
}

func (r productReq) toDomain() domain.Product {
	return domain.Product{
		Name:        r.Name,
		Description: r.Description,
		Type:        domain.ProductType(r.Type),
		Quantity:    r.Quantity,
		Price:       r.Price,
		Image:       r.Image,
	}
}

// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	ps, err := h.catalog.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": toProductDTOs(ps)})
}

// GET /product/:productId
func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": toProductDTO(p)})
}

// POST /create-product
func (h *ProductHandler) Create(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	p, err := h.catalog.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product created successfully", "product": toProductDTO(p)})
}

// PUT /products/:productId
func (h *ProductHandler) Update(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	p, err := h.catalog.Update(c.Request.Context(), c.Param("productId"), req.toDomain())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product updated successfully", "product": toProductDTO(p)})
}

// DELETE /delete-product/:productId
func (h *ProductHandler) Delete(c *gin.Context) {
	p, err := h.catalog.Delete(c.Request.Context(), c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully", "product": toProductDTO(p)})
}
