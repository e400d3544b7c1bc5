package team

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes read-only role and settings-tab endpoints.
type Handler struct {
	registry *Registry
}

// NewHandler creates a new team configuration handler.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes sets up the public configuration routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/roles", h.ListRoles)
	r.GET("/settings/tabs/:scope", h.ListTabs)
}

// ListRoles handles GET /v1/roles
func (h *Handler) ListRoles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"roles":       h.registry.Roles(),
		"defaultRole": h.registry.DefaultRole(),
	})
}

// ListTabs handles GET /v1/settings/tabs/:scope
func (h *Handler) ListTabs(c *gin.Context) {
	scope := TabScope(c.Param("scope"))
	if scope != ScopePersonal && scope != ScopeTeam {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_scope",
			"message": "scope must be 'personal' or 'team'",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scope": scope,
		"tabs":  h.registry.Tabs(scope),
	})
}
