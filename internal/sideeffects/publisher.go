package sideeffects

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/pubsub"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// Publisher enqueues side-effect intents after an event commits. Publishing
// is strictly best effort: a failure is logged and dropped so it can never
// undo or fail the billing state transition that produced the intent.
type Publisher struct {
	pub    pubsub.Publisher
	topic  string
	logger *logger.Logger
}

// NewPublisher creates the intent publisher
func NewPublisher(pub pubsub.Publisher, cfg *config.Configuration, logger *logger.Logger) *Publisher {
	return &Publisher{
		pub:    pub,
		topic:  cfg.SideEffects.Topic,
		logger: logger,
	}
}

// Publish enqueues each intent as its own message, keyed by the originating
// event id for correlation.
func (p *Publisher) Publish(ctx context.Context, intents []types.SideEffectIntent) {
	for _, intent := range intents {
		payload, err := json.Marshal(intent)
		if err != nil {
			p.logger.Errorw("failed to marshal side-effect intent",
				"error", err,
				"intent_id", intent.ID,
				"kind", intent.Kind,
			)
			continue
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		middleware.SetCorrelationID(intent.EventID, msg)

		if err := p.pub.Publish(ctx, p.topic, msg); err != nil {
			p.logger.Errorw("failed to publish side-effect intent",
				"error", err,
				"intent_id", intent.ID,
				"kind", intent.Kind,
				"event_id", intent.EventID,
			)
			continue
		}

		p.logger.Debugw("side-effect intent published",
			"intent_id", intent.ID,
			"kind", intent.Kind,
			"event_id", intent.EventID,
		)
	}
}
