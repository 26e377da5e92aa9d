package router

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/sentry"
)

// Router manages message routing for the side-effect executor. A handler
// error here is retried a bounded number of times and then dropped; the
// idempotency ledger is never involved.
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
	config *config.SideEffectsConfig
}

// NewRouter creates a new message router
func NewRouter(cfg *config.Configuration, logger *logger.Logger, sentry *sentry.Service) (*Router, error) {
	router, err := message.NewRouter(
		message.RouterConfig{},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	// The poison queue is the outermost middleware: once the retry budget
	// below is exhausted it diverts the message to the dead-letter topic and
	// acks it, so a persistently failing provider can never spin one message
	// forever.
	poisonQueue, err := middleware.PoisonQueue(newDeadLetterQueue(), deadLetterTopic)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:          cfg.SideEffects.MaxRetries,
			InitialInterval:     500 * time.Millisecond,
			MaxInterval:         10 * time.Second,
			Multiplier:          2.0,
			RandomizationFactor: 0.5,
			Logger:              watermill.NewStdLogger(false, false),
			OnRetryHook: func(retryNum int, delay time.Duration) {
				logger.Infow("retrying side-effect message",
					"retry_number", retryNum,
					"max_retries", cfg.SideEffects.MaxRetries,
					"delay", delay,
				)
			},
		}.Middleware,
	)

	return &Router{
		router: router,
		logger: logger,
		sentry: sentry,
		config: &cfg.SideEffects,
	}, nil
}

// AddNoPublishHandler adds a handler that doesn't publish messages
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err != nil {
				r.sentry.CaptureException(err)
				r.logger.Errorw("side-effect handler failed",
					"error", err,
					"correlation_id", middleware.MessageCorrelationID(msg),
					"message_uuid", msg.UUID,
				)
			}
			return err
		},
	)

	for _, m := range middlewares {
		handler.AddMiddleware(m)
	}
}

// Running returns a channel that is closed once the router is running and
// handlers are subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Run starts the router and blocks until the context is done
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting message router")
	return r.router.Run(ctx)
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing message router")
	return r.router.Close()
}

const deadLetterTopic = "side_effects_dlq"

// newDeadLetterQueue holds poisoned intents in process. Nothing subscribes
// to it, so a diverted intent is dropped after its failures were logged.
func newDeadLetterQueue() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			Persistent: false,
		},
		watermill.NewStdLogger(false, false),
	)
}
