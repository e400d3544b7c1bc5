package billing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/billflow/internal/account"
	"github.com/mbd888/billflow/internal/plan"
	"github.com/mbd888/billflow/internal/tax"
)

// Handler provides HTTP endpoints for subscription management.
type Handler struct {
	service *Service
}

// NewHandler creates a new subscription handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the subscription routes under an account.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/accounts/:id/subscription", h.GetSubscription)
	r.POST("/accounts/:id/subscription", h.CreateSubscription)
	r.PUT("/accounts/:id/subscription", h.SwapSubscription)
	r.DELETE("/accounts/:id/subscription", h.CancelSubscription)
}

// GetSubscription handles GET /v1/accounts/:id/subscription
func (h *Handler) GetSubscription(c *gin.Context) {
	sub, err := h.service.Current(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// CreateSubscription handles POST /v1/accounts/:id/subscription
func (h *Handler) CreateSubscription(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "planId required"})
		return
	}
	if req.PlanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_plan", "message": "planId required"})
		return
	}
	req.AccountID = c.Param("id")
	req.ClientIP = c.ClientIP()

	sub, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

// SwapSubscription handles PUT /v1/accounts/:id/subscription
func (h *Handler) SwapSubscription(c *gin.Context) {
	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_plan", "message": "planId required"})
		return
	}
	req.AccountID = c.Param("id")

	sub, err := h.service.Swap(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// CancelSubscription handles DELETE /v1/accounts/:id/subscription
func (h *Handler) CancelSubscription(c *gin.Context) {
	sub, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// respondError maps service errors onto the API error contract.
func respondError(c *gin.Context, err error) {
	var gwErr *GatewayError
	switch {
	case errors.Is(err, plan.ErrUnknownPlan):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_plan", "message": "unknown plan"})
	case errors.Is(err, tax.ErrUnknownJurisdiction):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_jurisdiction", "message": "no tax rate configured for billing country"})
	case errors.Is(err, ErrFreePlanSwap):
		c.JSON(http.StatusBadRequest, gin.H{"error": "free_plan_swap", "message": "free subscriptions cannot be swapped"})
	case errors.Is(err, account.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "account not found"})
	case errors.Is(err, ErrNoActiveSubscription), errors.Is(err, ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no_subscription", "message": "no active subscription"})
	case errors.Is(err, ErrSubscriptionExists):
		c.JSON(http.StatusConflict, gin.H{"error": "subscription_exists", "message": "account already has an active subscription"})
	case errors.As(err, &gwErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "gateway_error", "message": "payment gateway request failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
	}
}
