package middleware

import (
	"context"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/gin-gonic/gin"
)

const headerRequestID = "X-Request-ID"

// RequestIDMiddleware tags every request with an id, honoring one supplied
// by the caller.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(headerRequestID)
	if requestID == "" {
		requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
	}

	ctx := context.WithValue(c.Request.Context(), types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)

	c.Header(headerRequestID, requestID)
	c.Next()
}
