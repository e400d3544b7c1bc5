package plan

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the plan catalogue over HTTP.
type Handler struct {
	catalog *Catalog
}

// NewHandler creates a new plan handler.
func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// RegisterRoutes sets up the plan routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/plans", h.ListPlans)
	r.GET("/plans/:id", h.GetPlan)
}

// ListPlans handles GET /v1/plans
func (h *Handler) ListPlans(c *gin.Context) {
	plans := h.catalog.List()
	c.JSON(http.StatusOK, gin.H{"plans": plans, "count": len(plans)})
}

// GetPlan handles GET /v1/plans/:id
func (h *Handler) GetPlan(c *gin.Context) {
	p, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown plan"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": p})
}
