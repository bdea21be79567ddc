package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aisohq/aiso-market/internal/catalog"
	"github.com/aisohq/aiso-market/internal/http/response"
	"github.com/aisohq/aiso-market/internal/services"
)

type MarketHandler struct {
	marketService services.MarketService
	catalog       *catalog.Catalog
}

func NewMarketHandler(marketService services.MarketService, cat *catalog.Catalog) *MarketHandler {
	return &MarketHandler{marketService: marketService, catalog: cat}
}

// GET /market/apps?category=&tag=&limit=&offset=
func (h *MarketHandler) Browse(c *gin.Context) {
	apps, err := h.marketService.Browse(c.Request.Context(), services.BrowseFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Limit:    queryInt(c, "limit", 50),
		Offset:   queryInt(c, "offset", 0),
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"apps": apps})
}

// GET /market/apps/:id
func (h *MarketHandler) GetApp(c *gin.Context) {
	detail, err := h.marketService.GetApp(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// GET /market/apps/:id/reviews
func (h *MarketHandler) Reviews(c *gin.Context) {
	reviews, err := h.marketService.Reviews(c.Request.Context(), c.Param("id"),
		queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reviews": reviews})
}

// GET /market/apps/:id/rating
func (h *MarketHandler) RatingSummary(c *gin.Context) {
	summary, err := h.marketService.RatingSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, summary)
}

// GET /market/search?q=
func (h *MarketHandler) Search(c *gin.Context) {
	apps, err := h.marketService.Search(c.Request.Context(), c.Query("q"),
		queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"apps": apps})
}

// GET /market/featured
func (h *MarketHandler) Featured(c *gin.Context) {
	apps, err := h.marketService.Featured(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"apps": apps})
}

// GET /market/categories
func (h *MarketHandler) Categories(c *gin.Context) {
	response.RespondOK(c, gin.H{"categories": services.Categories})
}

// GET /market/permissions
func (h *MarketHandler) Permissions(c *gin.Context) {
	response.RespondOK(c, gin.H{"permissions": h.catalog.Permissions()})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
