package controllers

import (
	"net/http"

	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	catalog CatalogService
}

func NewCatalogController(catalog CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// Refresh reloads the catalog from the POS API.
func (cc *CatalogController) Refresh(c *gin.Context) {
	products, err := cc.catalog.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

func (cc *CatalogController) Search(c *gin.Context) {
	term := c.Query("q")
	products := cc.catalog.Search(term)
	c.JSON(http.StatusOK, gin.H{"query": term, "products": products})
}

// AddProduct registers a product priced from cost and margin.
func (cc *CatalogController) AddProduct(c *gin.Context) {
	var input models.NewProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid product payload")
		return
	}

	product, err := cc.catalog.AddProduct(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"product": gin.H{
			"code":      product.Code,
			"name":      product.Name,
			"quantity":  product.Quantity,
			"cost":      product.Cost,
			"price":     product.Price.StringFixed(2),
			"min_stock": product.MinStock,
		},
	})
}
