package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/ordenes-saga/internal/auth"
	"github.com/MikeMC777/ordenes-saga/internal/httpx"
	pay "github.com/MikeMC777/ordenes-saga/internal/payment"
)

func registerRoutes(r gin.IRouter, svc *pay.Service, jwt *auth.JWTService) {
	payments := r.Group("/payments", httpx.Auth(jwt))
	payments.POST("", payHandler(svc))
	payments.GET("/:id", getPaymentHandler(svc))
}

// payHandler godoc
// @Summary      Pay an order
// @Description  A declined capture answers 201 with status FAILED after the order is canceled.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      pay.PayRequest  true  "payment"
// @Success      201   {object}  pay.View
// @Failure      400   {object}  httpx.ErrorBody
// @Failure      503   {object}  httpx.ErrorBody
// @Router       /payments [post]
func payHandler(svc *pay.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pay.PayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, err.Error())
			return
		}
		v, err := svc.Pay(c.Request.Context(), req.OrderID, req.Amount)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

// getPaymentHandler godoc
// @Summary      Get payment
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  pay.View
// @Failure      404  {object}  httpx.ErrorBody
// @Router       /payments/{id} [get]
func getPaymentHandler(svc *pay.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}
