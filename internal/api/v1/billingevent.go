package v1

import (
	"net/http"
	"strconv"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/billingevent"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// BillingEventHandler exposes the idempotency ledger for delivery auditing.
type BillingEventHandler struct {
	service *service.BillingEventService
	logger  *logger.Logger
}

// NewBillingEventHandler creates the billing event handler
func NewBillingEventHandler(service *service.BillingEventService, logger *logger.Logger) *BillingEventHandler {
	return &BillingEventHandler{
		service: service,
		logger:  logger,
	}
}

// ListEvents handles GET /v1/billing/events
func (h *BillingEventHandler) ListEvents(c *gin.Context) {
	filter := &billingevent.Filter{
		EventType:        c.Query("event_type"),
		ProcessingStatus: c.Query("processing_status"),
		Limit:            queryInt(c, "limit"),
		Offset:           queryInt(c, "offset"),
	}

	resp, err := h.service.ListEvents(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetEvent handles GET /v1/billing/events/:id
func (h *BillingEventHandler) GetEvent(c *gin.Context) {
	resp, err := h.service.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
