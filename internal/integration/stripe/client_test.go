package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func newTestClient() *Client {
	cfg := config.GetDefaultConfig()
	cfg.Stripe.WebhookSecret = testWebhookSecret
	return NewClient(cfg, logger.NewNopLogger())
}

func TestVerifyEventValidSignature(t *testing.T) {
	client := newTestClient()
	payload := []byte(`{"id": "evt_1", "object": "event", "type": "invoice.paid", "data": {"object": {"id": "in_1"}}}`)

	event, err := client.VerifyEvent(payload, signPayload(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "invoice.paid", string(event.Type))
}

func TestVerifyEventBadSignature(t *testing.T) {
	client := newTestClient()
	payload := []byte(`{"id": "evt_1", "object": "event", "type": "invoice.paid", "data": {"object": {}}}`)

	_, err := client.VerifyEvent(payload, signPayload(payload, "whsec_other_secret", time.Now()))
	assert.True(t, ierr.IsInvalidSignature(err))
}

func TestVerifyEventMissingHeader(t *testing.T) {
	client := newTestClient()
	payload := []byte(`{"id": "evt_1", "object": "event", "type": "invoice.paid", "data": {"object": {}}}`)

	_, err := client.VerifyEvent(payload, "")
	assert.True(t, ierr.IsInvalidSignature(err))
}

func TestVerifyEventTamperedPayload(t *testing.T) {
	client := newTestClient()
	payload := []byte(`{"id": "evt_1", "object": "event", "type": "invoice.paid", "data": {"object": {}}}`)
	signature := signPayload(payload, testWebhookSecret, time.Now())

	tampered := []byte(`{"id": "evt_2", "object": "event", "type": "invoice.paid", "data": {"object": {}}}`)
	_, err := client.VerifyEvent(tampered, signature)
	assert.True(t, ierr.IsInvalidSignature(err))
}
