package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/growcery-api/internal/adapter/http/middleware"
	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

type OrderHandler struct {
	create  *usecase.CreateOrder
	status  *usecase.UpdateOrderStatus
	queries *usecase.OrderQueries
}

func NewOrderHandler(create *usecase.CreateOrder, status *usecase.UpdateOrderStatus, queries *usecase.OrderQueries) *OrderHandler {
	return &OrderHandler{create: create, status: status, queries: queries}
}

type updateStatusReq struct {
	OrderStatus *int `json:"orderStatus" binding:"required"`
}

// POST /orders/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	who, _ := middleware.IdentityFrom(c)
	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated requests

	order, err := h.create.Execute(c.Request.Context(), usecase.CreateOrderInput{
		Customer:       who,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Order created successfully", "order": toOrderDTO(order)})
}

// GET /orders
func (h *OrderHandler) Mine(c *gin.Context) {
	who, _ := middleware.IdentityFrom(c)
	views, err := h.queries.Mine(c.Request.Context(), who)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": toOrderViewDTOs(views)})
}

// GET /orders/all
func (h *OrderHandler) All(c *gin.Context) {
	views, err := h.queries.All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": toOrderViewDTOs(views)})
}

// PUT /orders/:orderId/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Order status is required")
		return
	}
	view, err := h.status.Execute(c.Request.Context(), c.Param("orderId"), domain.Status(*req.OrderStatus))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order status updated successfully", "order": toOrderViewDTO(view)})
}

// GET /orders/:orderId/status
func (h *OrderHandler) Status(c *gin.Context) {
	who, _ := middleware.IdentityFrom(c)
	orderID := c.Param("orderId")
	s, err := h.queries.StatusOf(c.Request.Context(), who, orderID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orderId": orderID, "orderStatus": int(s), "status": s.String()})
}

// GET /orders/:orderId/history
func (h *OrderHandler) History(c *gin.Context) {
	evs, err := h.queries.History(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": toHistoryDTO(evs)})
}
