package main

import (
	"context"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/api"
	v1 "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/api/v1"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/billing"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/cache"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/email"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/httpclient"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/integration/hubspot"
	stripeclient "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/integration/stripe"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/postgres"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/pubsub"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/pubsub/memory"
	pubsubRouter "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/pubsub/router"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/repository"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/sentry"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/service"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/sideeffects"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Everything downstream assumes UTC timestamps.
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			provideLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Repositories
			repository.NewBillingEventRepository,
			repository.NewSubscriptionRepository,
			repository.NewClientRepository,
			repository.NewOverageRepository,

			// PubSub
			memory.NewPubSub,
			providePublisher,
			provideSubscriber,
			pubsubRouter.NewRouter,

			// Integrations
			stripeclient.NewClient,
			provideInvoicingProvider,
			hubspot.NewClient,
			email.NewEmailClient,
			email.NewService,

			// Services
			service.NewServiceParams,
			service.NewClientService,
			service.NewBillingEventService,
			service.NewSubscriptionService,
			provideClientDirectory,

			// Billing pipeline
			billing.NewCommitmentEngine,
			billing.NewOverageInjector,
			billing.NewHandlers,
			billing.NewDispatcher,

			// Side effects
			sideeffects.NewPublisher,
			provideIntentPublisher,
			sideeffects.NewExecutor,

			// API
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)
	app.Run()
}

func provideLogger(cfg *config.Configuration) (*logger.Logger, error) {
	return logger.NewLogger(cfg.Logging.Level)
}

func providePublisher(ps pubsub.PubSub) pubsub.Publisher {
	return ps
}

func provideSubscriber(ps pubsub.PubSub) pubsub.Subscriber {
	return ps
}

func provideInvoicingProvider(c *stripeclient.Client) billing.InvoicingProvider {
	return c
}

func provideClientDirectory(s *service.ClientService) billing.ClientDirectory {
	return s
}

func provideIntentPublisher(p *sideeffects.Publisher) billing.IntentPublisher {
	return p
}

func provideHandlers(
	cfg *config.Configuration,
	log *logger.Logger,
	stripe *stripeclient.Client,
	dispatcher *billing.Dispatcher,
	billingEventService *service.BillingEventService,
	subscriptionService *service.SubscriptionService,
	clientService *service.ClientService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(log),
		Webhook:      v1.NewWebhookHandler(stripe, dispatcher, log),
		BillingEvent: v1.NewBillingEventHandler(billingEventService, log),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, log),
		Client:       v1.NewClientHandler(clientService, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, log)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	subscriber pubsub.Subscriber,
	executor *sideeffects.Executor,
	log *logger.Logger,
) {
	executor.RegisterHandler(router, subscriber)
	startAPIServer(lc, r, cfg, log)
	startMessageRouter(lc, router, log)
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(context.Background()); err != nil {
					log.Errorw("message router stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return router.Close()
		},
	})
}
