package controllers

import (
	"net/http"
	"strconv"

	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/gin-gonic/gin"
)

type SalesController struct {
	sales SalesService
}

func NewSalesController(sales SalesService) *SalesController {
	return &SalesController{sales: sales}
}

// History lists recent sale lines, optionally limited to a date range.
func (sc *SalesController) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive whole number")
			return
		}
		limit = n
	}

	records, err := sc.sales.HistoryBetween(c.Request.Context(), limit, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": records, "count": len(records)})
}

func (sc *SalesController) Summary(c *gin.Context) {
	summary, err := sc.sales.Summary(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Profit returns the profitability report for ?period=today|week|month|custom.
func (sc *SalesController) Profit(c *gin.Context) {
	period := models.ProfitPeriod(c.Query("period"))
	report, err := sc.sales.ProfitAnalysis(c.Request.Context(), period, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
