package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Router groups the handlers served by the parking service
type Router struct {
	Catalog  *CatalogHandlers
	Checkout *CheckoutHandlers
	Payment  *PaymentHandlers
	Admin    *AdminHandlers
	// Origins allowed by CORS; empty allows any origin
	AllowedOrigins []string
	// Serves the sandbox completion callback; off in production
	SandboxEnabled bool
}

// NewEngine builds the gin engine with middleware and every route
func NewEngine(rt Router) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(), gin.Recovery(), cors.New(corsConfig(rt.AllowedOrigins)))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "parking-service"})
	})

	api := r.Group("/api")
	{
		parkings := api.Group("/parkings")
		parkings.GET("/search", rt.Catalog.Search)
		parkings.GET("/catalog", rt.Catalog.Catalog)

		api.POST("/checkout", rt.Checkout.Checkout)

		payments := api.Group("/payments")
		payments.POST("/stripe/webhook", rt.Payment.StripeWebhook)
		if rt.SandboxEnabled {
			payments.POST("/sandbox/complete", rt.Payment.SandboxComplete)
		}

		admin := api.Group("/admin")
		admin.GET("/promo-codes", rt.Admin.PromoCodes)
		admin.GET("/grand-discount", rt.Admin.GetGrandDiscount)
		admin.PUT("/grand-discount", rt.Admin.UpdateGrandDiscount)
		admin.DELETE("/grand-discount", rt.Admin.DeleteGrandDiscount)

		orders := admin.Group("/orders")
		orders.GET("", rt.Admin.ListOrders)
		orders.GET("/:id", rt.Admin.GetOrder)
		orders.POST("/:id/status", rt.Admin.UpdateOrderStatus)
		orders.POST("/:id/preview", rt.Admin.PreviewOrderChanges)
		orders.POST("/:id/details", rt.Admin.SaveOrderDetails)
		orders.GET("/:id/journal", rt.Admin.OrderJournal)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
