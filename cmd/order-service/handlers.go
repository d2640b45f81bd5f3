package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/ordenes-saga/internal/auth"
	"github.com/MikeMC777/ordenes-saga/internal/httpx"
	ord "github.com/MikeMC777/ordenes-saga/internal/order"
)

func registerRoutes(r gin.IRouter, svc *ord.Service, jwt *auth.JWTService) {
	orders := r.Group("/orders", httpx.Auth(jwt))
	orders.POST("", createOrderHandler(svc))
	orders.GET("/:id", getOrderHandler(svc))
	orders.POST("/:id/cancel", cancelOrderHandler(svc))
	// only the payment side confirms
	orders.POST("/:id/confirm", httpx.RequireRole("SERVICE", "ADMIN"), confirmOrderHandler(svc))
}

// createOrderHandler godoc
// @Summary      Create order
// @Description  Prices every line from the ledger, stores the order as PENDING and debits stock.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      ord.CreateOrderRequest  true  "order"
// @Success      201   {object}  ord.View
// @Failure      400   {object}  httpx.ErrorBody
// @Failure      503   {object}  httpx.ErrorBody
// @Router       /orders [post]
func createOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, err.Error())
			return
		}
		v, err := svc.Create(c.Request.Context(), req.AccountID, req.Items)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

// getOrderHandler godoc
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  ord.View
// @Failure      404  {object}  httpx.ErrorBody
// @Router       /orders/{id} [get]
func getOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// cancelOrderHandler godoc
// @Summary      Cancel order and restock
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  ord.View
// @Failure      404  {object}  httpx.ErrorBody
// @Failure      409  {object}  httpx.ErrorBody
// @Router       /orders/{id}/cancel [post]
func cancelOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.Cancel(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// confirmOrderHandler godoc
// @Summary      Confirm order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  ord.View
// @Failure      404  {object}  httpx.ErrorBody
// @Router       /orders/{id}/confirm [post]
func confirmOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.Confirm(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}
