package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/services"
)

// AdminHandlers handles the admin dashboard requests
type AdminHandlers struct {
	catalog *services.CatalogService
	orders  *services.OrderService
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(catalog *services.CatalogService, orders *services.OrderService) *AdminHandlers {
	return &AdminHandlers{catalog: catalog, orders: orders}
}

// PromoCodes lists promo codes with their usage against the limit
func (ah *AdminHandlers) PromoCodes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	usage, err := ah.catalog.PromoUsage(ctx)
	if err != nil {
		respondError(c, "Promo codes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"promo_codes": usage, "count": len(usage)})
}

// GetGrandDiscount returns the current site-wide discount
func (ah *AdminHandlers) GetGrandDiscount(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	pct, err := ah.catalog.GrandDiscount(ctx)
	if err != nil {
		respondError(c, "Grand discount", err)
		return
	}
	c.JSON(http.StatusOK, models.GrandDiscount{Percent: pct})
}

// UpdateGrandDiscount sets the site-wide discount
func (ah *AdminHandlers) UpdateGrandDiscount(c *gin.Context) {
	var req models.GrandDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "discount must be a number"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	pct, err := ah.catalog.UpdateGrandDiscount(ctx, req.Percent)
	if err != nil {
		respondError(c, "Update grand discount", err)
		return
	}
	c.JSON(http.StatusOK, models.GrandDiscount{Percent: pct})
}

// DeleteGrandDiscount removes the site-wide discount
func (ah *AdminHandlers) DeleteGrandDiscount(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := ah.catalog.DeleteGrandDiscount(ctx); err != nil {
		respondError(c, "Delete grand discount", err)
		return
	}
	c.JSON(http.StatusOK, models.GrandDiscount{Percent: 0})
}

// ListOrders returns every order
func (ah *AdminHandlers) ListOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	orders, err := ah.orders.ListOrders(ctx)
	if err != nil {
		respondError(c, "List orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// GetOrder returns one order
func (ah *AdminHandlers) GetOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	order, err := ah.orders.GetOrder(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "Get order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus changes only the status of an order
func (ah *AdminHandlers) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	status, err := ah.orders.UpdateStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, "Update order status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": c.Param("id"), "status": status})
}

// PreviewOrderChanges returns the changes a save would make
func (ah *AdminHandlers) PreviewOrderChanges(c *gin.Context) {
	original, current, ok := ah.bindEdit(c)
	if !ok {
		return
	}
	changes := ah.orders.PreviewChanges(original, current)
	c.JSON(http.StatusOK, gin.H{"order_id": c.Param("id"), "changes": changes, "count": len(changes)})
}

// SaveOrderDetails persists an admin edit and notifies the customer
func (ah *AdminHandlers) SaveOrderDetails(c *gin.Context) {
	original, current, ok := ah.bindEdit(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	result, err := ah.orders.SaveChanges(ctx, original, current)
	if err != nil {
		respondError(c, "Save order", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// OrderJournal lists the saved edits of an order
func (ah *AdminHandlers) OrderJournal(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	entries, err := ah.orders.Journal(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "Order journal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": c.Param("id"), "entries": entries})
}

// bindEdit reads both snapshots of an edit session. When the client sends
// no original, the persisted order is fetched and used instead.
func (ah *AdminHandlers) bindEdit(c *gin.Context) (models.Order, models.Order, bool) {
	id := strings.TrimSpace(c.Param("id"))
	var req models.SaveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return models.Order{}, models.Order{}, false
	}
	if req.Current.ID != "" && string(req.Current.ID) != id {
		respondError(c, "Order edit", domain.ValidationError{Field: "id", Msg: "does not match the order in the path"})
		return models.Order{}, models.Order{}, false
	}
	req.Current.ID = models.Loose(id)

	if req.Original.ID == "" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		original, err := ah.orders.GetOrder(ctx, id)
		if err != nil {
			respondError(c, "Order edit", err)
			return models.Order{}, models.Order{}, false
		}
		req.Original = *original
	}
	return req.Original, req.Current, true
}
