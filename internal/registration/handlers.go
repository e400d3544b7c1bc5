package registration

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbd888/billflow/internal/account"
	"github.com/mbd888/billflow/internal/idgen"
	"github.com/mbd888/billflow/internal/metrics"
	"github.com/mbd888/billflow/internal/tax"
	"github.com/mbd888/billflow/internal/validation"
)

// Handler provides the HTTP endpoint for account registration.
type Handler struct {
	validator *Validator
	accounts  account.Store
	taxes     *tax.Resolver

	// requireAddress enables the billing address rules for deployments
	// that compute VAT at registration time.
	requireAddress bool
}

// NewHandler creates a new registration handler.
func NewHandler(validator *Validator, accounts account.Store, taxes *tax.Resolver, requireAddress bool) *Handler {
	return &Handler{
		validator:      validator,
		accounts:       accounts,
		taxes:          taxes,
		requireAddress: requireAddress,
	}
}

// RegisterRoutes sets up the registration route.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/accounts", h.Register)
	r.GET("/accounts/:id", h.GetAccount)
}

// Register handles POST /v1/accounts
func (h *Handler) Register(c *gin.Context) {
	var sub Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid body"})
		return
	}

	res, err := h.validator.Validate(c.Request.Context(), sub, h.requireAddress)
	if err != nil {
		if errors.Is(err, ErrDirectoryUnavailable) {
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "directory_unavailable", "message": "try again shortly"})
			return
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}
	if !res.OK() {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "fields": res.Errors})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(sub.Password), bcrypt.DefaultCost)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to process password"})
		return
	}

	now := time.Now()
	a := &account.Account{
		ID:           idgen.WithPrefix("acc_"),
		Name:         validation.SanitizeString(sub.Name, validation.MaxNameLength),
		Email:        sub.Email,
		PasswordHash: string(hash),
		Company:      validation.SanitizeString(sub.Company, validation.MaxNameLength),
		Street:       validation.SanitizeString(sub.Street, validation.MaxNameLength),
		City:         validation.SanitizeString(sub.City, validation.MaxNameLength),
		PostalCode:   validation.SanitizeString(sub.PostalCode, 32),
		Tax: account.TaxProfile{
			CountryCode: sub.Country,
			VATID:       sub.VATID,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if h.requireAddress {
		if err := a.ApplyTaxProfile(h.taxes); err != nil {
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_jurisdiction", "message": "no tax rate configured for billing country"})
			return
		}
	}

	if err := h.accounts.Create(c.Request.Context(), a); err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			// The uniqueness check raced another registration.
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			c.JSON(http.StatusConflict, gin.H{"error": "email_taken", "message": "email already registered"})
			return
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to create account"})
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	c.JSON(http.StatusCreated, gin.H{"account": a})
}

// GetAccount handles GET /v1/accounts/:id
func (h *Handler) GetAccount(c *gin.Context) {
	a, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": a})
}
