package controllers

import (
	"net/http"

	"github.com/retromusic/storefront/app/services"
	"github.com/retromusic/storefront/pkg/ctx"
	"github.com/retromusic/storefront/pkg/middleware"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{service: service}
}

type createOrderRequest struct {
	Items []services.CartItem `json:"items"`
}

// Create handles POST /api/ordenes.
func (o *OrderController) Create(c *ctx.Context) {
	userID, ok := middleware.UserIDFromCtx(c.R)
	if !ok {
		c.Unauthorized("Usuario no autenticado")
		return
	}

	var in createOrderRequest
	if !c.BindJSON(&in) {
		return
	}

	order, err := o.service.Create(c.Context(), userID, in.Items)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, map[string]any{
		"message": "Orden creada correctamente",
		"orden":   order,
	})
}

// Mine handles GET /api/ordenes/mias.
func (o *OrderController) Mine(c *ctx.Context) {
	userID, ok := middleware.UserIDFromCtx(c.R)
	if !ok {
		c.Unauthorized("Usuario no autenticado")
		return
	}
	orders, err := o.service.ListForUser(c.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, map[string]any{"ordenes": orders})
}
