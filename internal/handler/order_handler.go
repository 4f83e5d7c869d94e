package handler

import (
	"net/http"

	"airport-booking/internal/model"
	"airport-booking/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(service service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes create 為建立訂單前的額外 middleware（例如限流）
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup, create ...gin.HandlerFunc) {
	r.GET("orders", h.GetOrders)
	r.GET("orders/:id", h.GetOrder)
	r.POST("orders", chain(h.CreateOrder, create...)...)
	r.POST("orders/:id/complete", h.CompleteOrder)
	r.POST("orders/:id/cancel", h.CancelOrder)
}

type ListOrdersQuery struct {
	Status string `form:"status"`
	UserID int    `form:"user_id"`
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req model.CreateOrderRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	order, err := h.service.Create(c, actor, req)
	if err != nil {
		handleError(c, err, "CreateOrder")
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := BindID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.Get(c, actor, id)
	if err != nil {
		handleError(c, err, "GetOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrders user_id 只對管理員有效
func (h *OrderHandler) GetOrders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var query ListOrdersQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	orders, err := h.service.List(c, actor, model.OrderFilter{
		UserID: query.UserID,
		Status: model.OrderStatus(query.Status),
	})
	if err != nil {
		handleError(c, err, "GetOrders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := BindID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.Complete(c, actor, id)
	if err != nil {
		handleError(c, err, "CompleteOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := BindID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.Cancel(c, actor, id)
	if err != nil {
		handleError(c, err, "CancelOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}
