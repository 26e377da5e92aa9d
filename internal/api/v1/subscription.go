package v1

import (
	"net/http"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/subscription"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// SubscriptionHandler exposes subscription and commitment state plus manual
// overage recording.
type SubscriptionHandler struct {
	service *service.SubscriptionService
	logger  *logger.Logger
}

// NewSubscriptionHandler creates the subscription handler
func NewSubscriptionHandler(service *service.SubscriptionService, logger *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		logger:  logger,
	}
}

// ListSubscriptions handles GET /v1/subscriptions
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	filter := &subscription.Filter{
		CustomerID:         c.Query("customer_id"),
		ClientID:           c.Query("client_id"),
		SubscriptionStatus: c.Query("subscription_status"),
		Limit:              queryInt(c, "limit"),
		Offset:             queryInt(c, "offset"),
	}

	resp, err := h.service.ListSubscriptions(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSubscription handles GET /v1/subscriptions/:id
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	resp, err := h.service.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListOverages handles GET /v1/subscriptions/:id/overages
func (h *SubscriptionHandler) ListOverages(c *gin.Context) {
	charges, err := h.service.ListOverages(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": charges})
}

// RecordOverage handles POST /v1/subscriptions/:id/overages
func (h *SubscriptionHandler) RecordOverage(c *gin.Context) {
	var req service.RecordOverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid overage payload").
			Mark(ierr.ErrValidation))
		return
	}

	charge, err := h.service.RecordOverage(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, charge)
}
