package sideeffects

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/email"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCRM struct {
	mu       sync.Mutex
	contacts []string
	deals    []string
}

func (f *fakeCRM) Enabled() bool { return true }

func (f *fakeCRM) UpsertContactProperties(ctx context.Context, emailAddr string, properties map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, emailAddr)
	return nil
}

func (f *fakeCRM) CreateDeal(ctx context.Context, emailAddr string, dealName string, properties map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deals = append(f.deals, dealName)
	return nil
}

func newTestExecutor(crm *fakeCRM) *Executor {
	cfg := config.GetDefaultConfig()
	log := logger.NewNopLogger()
	emailService := email.NewService(email.NewEmailClient(cfg), log)
	return NewExecutor(crm, emailService, cfg, log)
}

func intentMessage(t *testing.T, intent types.SideEffectIntent) *message.Message {
	t.Helper()
	payload, err := json.Marshal(intent)
	require.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(context.Background())
	return msg
}

func TestExecutorRoutesCRMContactSync(t *testing.T) {
	crm := &fakeCRM{}
	executor := newTestExecutor(crm)

	intent := types.NewSideEffectIntent(types.SideEffectCRMContactSync, "evt_1")
	intent.Email = "rosa@example.com"
	intent.Properties = map[string]string{"plan_tier": "growth"}

	require.NoError(t, executor.handle(intentMessage(t, intent)))
	assert.Equal(t, []string{"rosa@example.com"}, crm.contacts)
}

func TestExecutorRoutesDealCreate(t *testing.T) {
	crm := &fakeCRM{}
	executor := newTestExecutor(crm)

	intent := types.NewSideEffectIntent(types.SideEffectCRMDealCreate, "evt_1")
	intent.Email = "rosa@example.com"
	intent.DealName = "Consulting subscription: growth"

	require.NoError(t, executor.handle(intentMessage(t, intent)))
	assert.Equal(t, []string{"Consulting subscription: growth"}, crm.deals)
}

func TestExecutorEmailSendWithDisabledClientIsNoOp(t *testing.T) {
	executor := newTestExecutor(&fakeCRM{})

	intent := types.NewSideEffectIntent(types.SideEffectEmailSend, "evt_1")
	intent.Email = "rosa@example.com"
	intent.Template = types.EmailTemplatePaymentFailed
	intent.TemplateData = map[string]string{"client_name": "Rosa"}

	assert.NoError(t, executor.handle(intentMessage(t, intent)))
}

func TestExecutorDropsMalformedIntent(t *testing.T) {
	executor := newTestExecutor(&fakeCRM{})

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	msg.SetContext(context.Background())
	assert.NoError(t, executor.handle(msg))
}

func TestExecutorRejectsUnknownKind(t *testing.T) {
	executor := newTestExecutor(&fakeCRM{})

	intent := types.NewSideEffectIntent(types.SideEffectKind("unknown.kind"), "evt_1")
	assert.Error(t, executor.handle(intentMessage(t, intent)))
}
