package api

import (
	v1 "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/api/v1"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Webhook      *v1.WebhookHandler
	BillingEvent *v1.BillingEventHandler
	Subscription *v1.SubscriptionHandler
	Client       *v1.ClientHandler
}

// NewRouter wires the public ingress (health, webhooks) and the
// JWT-protected admin surface.
func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	// Webhook ingress authenticates via signature verification, not JWT.
	router.POST("/webhooks/stripe", handlers.Webhook.HandleStripe)

	v1Group := router.Group("/v1", middleware.AuthenticateMiddleware(cfg, logger))
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	events := router.Group("/billing/events")
	{
		events.GET("", handlers.BillingEvent.ListEvents)
		events.GET("/:id", handlers.BillingEvent.GetEvent)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.GET("", handlers.Subscription.ListSubscriptions)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.GET("/:id/overages", handlers.Subscription.ListOverages)
		subscriptions.POST("/:id/overages", handlers.Subscription.RecordOverage)
	}

	clients := router.Group("/clients")
	{
		clients.GET("", handlers.Client.ListClients)
		clients.GET("/:id", handlers.Client.GetClient)
	}
}
