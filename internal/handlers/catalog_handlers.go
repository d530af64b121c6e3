package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/services"
)

// CatalogHandlers handles storefront catalog requests
type CatalogHandlers struct {
	catalog *services.CatalogService
}

// NewCatalogHandlers creates new catalog handlers
func NewCatalogHandlers(catalog *services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Catalog returns rate cards, promo codes and the grand discount in one
// response. A failed source is reported next to the others instead of
// failing the request.
func (ch *CatalogHandlers) Catalog(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	catalog := ch.catalog.LoadCatalog(ctx)
	status := http.StatusOK
	if catalog.RateCardsError != "" && catalog.PromoCodesError != "" && catalog.GrandDiscountError != "" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, catalog)
}

// Search prices every parking at a location for the requested stay
func (ch *CatalogHandlers) Search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search parameters"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	resp, err := ch.catalog.Search(ctx, &req)
	if err != nil {
		respondError(c, "Search", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
