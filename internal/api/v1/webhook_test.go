package v1

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/billing"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	stripeclient "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/integration/stripe"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/sentry"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/testutil"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

type webhookFixture struct {
	router *gin.Engine
	ledger *testutil.InMemoryBillingEventStore
}

func newWebhookFixture() *webhookFixture {
	gin.SetMode(gin.TestMode)

	cfg := config.GetDefaultConfig()
	cfg.Stripe.WebhookSecret = testWebhookSecret
	log := logger.NewNopLogger()

	ledger := testutil.NewInMemoryBillingEventStore()
	subscriptions := testutil.NewInMemorySubscriptionStore()
	invoicing := testutil.NewFakeInvoicingProvider()

	engine := billing.NewCommitmentEngine(subscriptions, invoicing, log)
	injector := billing.NewOverageInjector(testutil.NewInMemoryOverageStore(), invoicing, log)
	handlers := billing.NewHandlers(subscriptions, testutil.NewFakeClientDirectory(), engine, injector, log)
	dispatcher := billing.NewDispatcher(ledger, handlers, testutil.NewFakeIntentPublisher(), log, sentry.NewSentryService(cfg, log))

	handler := NewWebhookHandler(stripeclient.NewClient(cfg, log), dispatcher, log)

	router := gin.New()
	router.POST("/webhooks/stripe", handler.HandleStripe)

	return &webhookFixture{router: router, ledger: ledger}
}

func signWebhookPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookAcknowledgesVerifiedEvent(t *testing.T) {
	fixture := newWebhookFixture()
	payload := []byte(`{"id": "evt_1", "object": "event", "type": "invoice.paid", "data": {"object": {"id": "in_1"}}}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signWebhookPayload(payload, testWebhookSecret))
	resp := httptest.NewRecorder()
	fixture.router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, true, body["received"])
	assert.Equal(t, "invoice.paid", body["type"])
	assert.Equal(t, "evt_1", body["id"])

	// Processing runs off the request goroutine; the ledger entry lands
	// shortly after the ack.
	require.Eventually(t, func() bool {
		entry, err := fixture.ledger.Get(context.Background(), "evt_1")
		return err == nil && entry.ProcessingStatus == types.ProcessingStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	fixture := newWebhookFixture()
	payload := []byte(`{"id": "evt_1", "object": "event", "type": "invoice.paid", "data": {"object": {}}}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signWebhookPayload(payload, "whsec_wrong"))
	resp := httptest.NewRecorder()
	fixture.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)

	_, err := fixture.ledger.Get(context.Background(), "evt_1")
	assert.Error(t, err)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	fixture := newWebhookFixture()
	payload := []byte(`{"id": "evt_1", "object": "event", "type": "invoice.paid", "data": {"object": {}}}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	fixture.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
