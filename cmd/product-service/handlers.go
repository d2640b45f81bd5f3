package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/ordenes-saga/internal/auth"
	"github.com/MikeMC777/ordenes-saga/internal/httpx"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
	prod "github.com/MikeMC777/ordenes-saga/internal/product"
)

func registerRoutes(r gin.IRouter, repo prod.Repository, jwt *auth.JWTService, m *metrics.Metrics) {
	items := r.Group("/items", httpx.Auth(jwt))
	items.GET("/sku/:sku", getItemBySKUHandler(repo))
	items.GET("/:id", getItemHandler(repo))

	writers := items.Group("", httpx.RequireRole("SERVICE", "ADMIN"))
	writers.POST("", createItemHandler(repo))
	writers.POST("/:id/inventory/adjust", adjustStockHandler(repo, m))
}

// getItemBySKUHandler godoc
// @Summary      Get item by SKU
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        sku  path  string  true  "SKU"
// @Success      200  {object}  prod.ItemView
// @Failure      404  {object}  httpx.ErrorBody
// @Router       /items/sku/{sku} [get]
func getItemBySKUHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		it, err := repo.GetBySKU(c.Request.Context(), c.Param("sku"))
		if err != nil {
			httpx.WriteError(c, prod.Classify(err))
			return
		}
		c.JSON(http.StatusOK, it.View())
	}
}

// getItemHandler godoc
// @Summary      Get item by id
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Item ID"
// @Success      200  {object}  prod.ItemView
// @Failure      404  {object}  httpx.ErrorBody
// @Router       /items/{id} [get]
func getItemHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		it, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, prod.Classify(err))
			return
		}
		c.JSON(http.StatusOK, it.View())
	}
}

// createItemHandler godoc
// @Summary      Create inventory item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      prod.CreateItemRequest  true  "item"
// @Success      201   {object}  prod.ItemView
// @Failure      400   {object}  httpx.ErrorBody
// @Failure      409   {object}  httpx.ErrorBody
// @Router       /items [post]
func createItemHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.CreateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, err.Error())
			return
		}
		price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
		if err != nil || price.IsNegative() {
			httpx.BadRequest(c, "price must be a non-negative decimal")
			return
		}
		active := true
		if req.Active != nil {
			active = *req.Active
		}

		it := &prod.Item{
			ID:          uuid.NewString(),
			SKU:         strings.TrimSpace(req.SKU),
			Name:        req.Name,
			Description: req.Description,
			PictureURL:  req.PictureURL,
			Price:       price.Round(2),
			Stock:       req.Stock,
			Active:      active,
		}
		if it.SKU == "" {
			httpx.BadRequest(c, "sku is required")
			return
		}
		if err := repo.Create(c.Request.Context(), it); err != nil {
			httpx.WriteError(c, prod.Classify(err))
			return
		}
		c.JSON(http.StatusCreated, it.View())
	}
}

// adjustStockHandler godoc
// @Summary      Add delta to stock
// @Description  Negative deltas debit. The ledger never goes below zero.
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Item ID"
// @Param        body  body      prod.AdjustRequest  true  "delta"
// @Success      200   {object}  prod.ItemView
// @Failure      404   {object}  httpx.ErrorBody
// @Failure      409   {object}  httpx.ErrorBody
// @Router       /items/{id}/inventory/adjust [post]
func adjustStockHandler(repo prod.Repository, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.AdjustRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "delta must be a non-zero integer")
			return
		}
		step := "credit"
		if req.Delta < 0 {
			step = "debit"
		}

		it, err := repo.Adjust(c.Request.Context(), c.Param("id"), req.Delta)
		m.Step("product", step, metrics.Outcome(err))
		if err != nil {
			httpx.WriteError(c, prod.Classify(err))
			return
		}
		c.JSON(http.StatusOK, it.View())
	}
}
