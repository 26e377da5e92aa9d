package sideeffects

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/email"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/integration/hubspot"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/pubsub"
	pubsubRouter "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/pubsub/router"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// Executor consumes queued intents and performs the external calls: CRM
// contact sync, CRM deal creation, and transactional email. Every call runs
// under a bounded timeout so a slow provider cannot stall the queue.
type Executor struct {
	crm    hubspot.Client
	email  *email.Service
	cfg    *config.Configuration
	logger *logger.Logger
}

// NewExecutor creates the side-effect executor
func NewExecutor(
	crm hubspot.Client,
	emailService *email.Service,
	cfg *config.Configuration,
	logger *logger.Logger,
) *Executor {
	return &Executor{
		crm:    crm,
		email:  emailService,
		cfg:    cfg,
		logger: logger,
	}
}

// RegisterHandler attaches the executor to the side-effect topic.
func (e *Executor) RegisterHandler(router *pubsubRouter.Router, subscriber pubsub.Subscriber) {
	router.AddNoPublishHandler(
		"side_effect_executor",
		e.cfg.SideEffects.Topic,
		subscriber,
		e.handle,
	)
}

func (e *Executor) handle(msg *message.Message) error {
	var intent types.SideEffectIntent
	if err := json.Unmarshal(msg.Payload, &intent); err != nil {
		// A malformed intent will never parse on retry; drop it.
		e.logger.Errorw("dropping malformed side-effect intent",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(msg.Context(), e.cfg.SideEffects.CallTimeout())
	defer cancel()

	e.logger.Debugw("executing side-effect intent",
		"intent_id", intent.ID,
		"kind", intent.Kind,
		"event_id", intent.EventID,
	)

	switch intent.Kind {
	case types.SideEffectCRMContactSync:
		return e.crm.UpsertContactProperties(ctx, intent.Email, intent.Properties)

	case types.SideEffectCRMDealCreate:
		return e.crm.CreateDeal(ctx, intent.Email, intent.DealName, intent.Properties)

	case types.SideEffectEmailSend:
		return e.email.Send(ctx, intent.Email, intent.Template, intent.TemplateData)

	default:
		return ierr.NewError("unknown side-effect kind").
			WithHintf("Kind %s is not recognized by this executor", intent.Kind).
			Mark(ierr.ErrValidation)
	}
}
