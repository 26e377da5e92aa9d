package v1

import (
	"context"
	"io"
	"net/http"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/billing"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	stripeclient "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/integration/stripe"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/gin-gonic/gin"
)

// WebhookHandler is the webhook ingress. Signature verification is the only
// synchronous gate: a bad signature is a 400 and nothing else runs. A
// verified event is acknowledged immediately and processed off the request
// goroutine, so processor retries are driven by the ledger, not by slow
// responses.
type WebhookHandler struct {
	stripe     *stripeclient.Client
	dispatcher *billing.Dispatcher
	logger     *logger.Logger
}

// NewWebhookHandler creates the webhook handler
func NewWebhookHandler(
	stripe *stripeclient.Client,
	dispatcher *billing.Dispatcher,
	logger *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		stripe:     stripe,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleStripe receives a webhook delivery.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read request body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	event, err := h.stripe.VerifyEvent(payload, signature)
	if err != nil {
		c.JSON(ierr.HTTPStatusFromErr(err), gin.H{"error": "invalid signature"})
		return
	}

	// Detach from the request context so processing outlives the response,
	// keeping the request id for correlation.
	ctx := context.WithValue(context.Background(), types.CtxRequestID, types.GetRequestID(c.Request.Context()))
	go func() {
		// A duplicate delivery is an expected skip, not a failure.
		if err := h.dispatcher.Process(ctx, event, payload); err != nil && !ierr.IsDuplicate(err) {
			h.logger.Errorw("webhook event processing failed",
				"error", err,
				"event_id", event.ID,
				"event_type", event.Type,
			)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"received": true,
		"type":     event.Type,
		"id":       event.ID,
	})
}
