package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/growcery-api/internal/adapter/http/middleware"
	"github.com/aq2208/growcery-api/internal/usecase"
)

type CartHandler struct {
	cart *usecase.CartManager
}

func NewCartHandler(cart *usecase.CartManager) *CartHandler {
	return &CartHandler{cart: cart}
}

type cartReq struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

// POST /cart/add
func (h *CartHandler) Add(c *gin.Context) {
	who, _ := middleware.IdentityFrom(c)
	var req cartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Product id is required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if err := h.cart.Add(c.Request.Context(), who, req.ProductID, qty); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item added to cart successfully"})
}

// GET /cart
func (h *CartHandler) Get(c *gin.Context) {
	who, _ := middleware.IdentityFrom(c)
	entries, err := h.cart.Get(c.Request.Context(), who)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": toCartDTO(entries)})
}

// PUT /cart/update
func (h *CartHandler) Update(c *gin.Context) {
	who, _ := middleware.IdentityFrom(c)
	var req cartReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "Product id and quantity are required")
		return
	}
	entries, err := h.cart.Update(c.Request.Context(), who, req.ProductID, *req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart item updated successfully", "cart": toCartDTO(entries)})
}

// DELETE /cart/remove/:productId
func (h *CartHandler) Remove(c *gin.Context) {
	who, _ := middleware.IdentityFrom(c)
	if err := h.cart.Remove(c.Request.Context(), who, c.Param("productId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item removed from cart successfully"})
}

// DELETE /cart/clear
func (h *CartHandler) Clear(c *gin.Context) {
	who, _ := middleware.IdentityFrom(c)
	if err := h.cart.Clear(c.Request.Context(), who); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart cleared successfully"})
}
