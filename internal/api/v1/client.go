package v1

import (
	"net/http"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// ClientHandler exposes the internal customer directory.
type ClientHandler struct {
	service *service.ClientService
	logger  *logger.Logger
}

// NewClientHandler creates the client handler
func NewClientHandler(service *service.ClientService, logger *logger.Logger) *ClientHandler {
	return &ClientHandler{
		service: service,
		logger:  logger,
	}
}

// ListClients handles GET /v1/clients
func (h *ClientHandler) ListClients(c *gin.Context) {
	filter := &client.Filter{
		Email:  c.Query("email"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}

	resp, err := h.service.ListClients(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetClient handles GET /v1/clients/:id
func (h *ClientHandler) GetClient(c *gin.Context) {
	resp, err := h.service.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
