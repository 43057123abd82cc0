package routes

import (
	"net/http"

	"github.com/PitherGabriel/PuntodeVentaTB/config"
	"github.com/PitherGabriel/PuntodeVentaTB/controllers"
	"github.com/PitherGabriel/PuntodeVentaTB/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups the controllers served under /api/terminal.
type Handlers struct {
	Terminal *controllers.TerminalController
	Checkout *controllers.CheckoutController
	Catalog  *controllers.CatalogController
	Sales    *controllers.SalesController
	Session  *controllers.SessionController
}

// RegisterTerminalRoutes mounts the terminal API. Everything except the
// session endpoints needs a signed-in operator when auth is enabled; routes
// behind a disabled feature answer 404 feature_disabled.
func RegisterTerminalRoutes(r *gin.Engine, h Handlers, state middleware.SessionState, features config.Features) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "features": features})
	})

	api := r.Group("/api/terminal")

	session := api.Group("/session", middleware.RequireFeature(features.Auth, "authentication"))
	{
		session.GET("", h.Session.Check)
		session.POST("/login", h.Session.Login)
		session.POST("/logout", h.Session.Logout)
	}

	protected := api.Group("", middleware.RequireSession(state))
	{
		protected.GET("/state", h.Terminal.GetState)

		protected.POST("/catalog/refresh", h.Catalog.Refresh)
		protected.GET("/catalog/search", h.Catalog.Search)
		protected.POST("/catalog/products", h.Catalog.AddProduct)

		protected.POST("/cart/items", h.Terminal.AddItem)
		protected.PATCH("/cart/items/:id", h.Terminal.UpdateItem)
		protected.DELETE("/cart/items/:id", h.Terminal.RemoveItem)
		protected.GET("/cart/change", h.Terminal.ChangeDue)

		protected.POST("/checkout/sale", h.Checkout.SubmitSale)

		invoicing := middleware.RequireFeature(features.Invoicing, "invoicing")
		protected.PUT("/client", invoicing, h.Terminal.SetClient)
		protected.DELETE("/client", invoicing, h.Terminal.ClearClient)
		protected.POST("/checkout/invoice", invoicing, h.Checkout.SubmitInvoice)
		protected.DELETE("/checkout/invoice", invoicing, h.Terminal.DismissInvoice)

		protected.GET("/sales/history", h.Sales.History)
		protected.GET("/sales/summary", h.Sales.Summary)
		protected.GET("/sales/profit", middleware.RequireFeature(features.ProfitReport, "profit report"), h.Sales.Profit)
	}
}
