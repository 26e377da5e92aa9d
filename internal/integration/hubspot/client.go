package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/httpclient"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
)

// Client defines the interface for HubSpot CRM operations consumed by the
// side-effect executor. All operations are best-effort from the caller's
// point of view.
type Client interface {
	Enabled() bool
	UpsertContactProperties(ctx context.Context, email string, properties map[string]string) error
	CreateDeal(ctx context.Context, email string, dealName string, properties map[string]string) error
}

type client struct {
	cfg        *config.HubSpotConfig
	logger     *logger.Logger
	httpClient httpclient.Client
}

// NewClient creates a new HubSpot client
func NewClient(cfg *config.Configuration, httpClient httpclient.Client, logger *logger.Logger) Client {
	return &client{
		cfg:        &cfg.HubSpot,
		logger:     logger,
		httpClient: httpClient,
	}
}

func (c *client) Enabled() bool {
	return c.cfg.AccessToken != ""
}

func (c *client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.cfg.AccessToken,
		"Content-Type":  "application/json",
	}
}

type searchResponse struct {
	Total   int `json:"total"`
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

// findContactID searches for a contact by email; empty string means no match.
func (c *client) findContactID(ctx context.Context, email string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"filterGroups": []map[string]interface{}{{
			"filters": []map[string]interface{}{{
				"propertyName": "email",
				"operator":     "EQ",
				"value":        email,
			}},
		}},
		"limit": 1,
	})
	if err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     fmt.Sprintf("%s/crm/v3/objects/contacts/search", c.cfg.BaseURL),
		Headers: c.headers(),
		Body:    body,
	})
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("HubSpot contact search failed").
			Mark(ierr.ErrHTTPClient)
	}

	var search searchResponse
	if err := json.Unmarshal(resp.Body, &search); err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	if search.Total == 0 || len(search.Results) == 0 {
		return "", nil
	}
	return search.Results[0].ID, nil
}

// UpsertContactProperties patches the contact matching the email, creating
// it when absent.
func (c *client) UpsertContactProperties(ctx context.Context, email string, properties map[string]string) error {
	if !c.Enabled() {
		c.logger.Debugw("hubspot disabled, skipping contact sync", "email", email)
		return nil
	}

	contactID, err := c.findContactID(ctx, email)
	if err != nil {
		return err
	}

	props := map[string]string{"email": email}
	for k, v := range properties {
		props[k] = v
	}
	body, err := json.Marshal(map[string]interface{}{"properties": props})
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	req := &httpclient.Request{
		Method:  http.MethodPost,
		URL:     fmt.Sprintf("%s/crm/v3/objects/contacts", c.cfg.BaseURL),
		Headers: c.headers(),
		Body:    body,
	}
	if contactID != "" {
		req.Method = http.MethodPatch
		req.URL = fmt.Sprintf("%s/crm/v3/objects/contacts/%s", c.cfg.BaseURL, contactID)
	}

	if _, err := c.httpClient.Send(ctx, req); err != nil {
		c.logger.Errorw("hubspot contact upsert failed",
			"error", err,
			"email", email,
		)
		return ierr.WithError(err).
			WithHint("HubSpot contact upsert failed").
			Mark(ierr.ErrHTTPClient)
	}

	c.logger.Debugw("hubspot contact synced", "email", email, "existing", contactID != "")
	return nil
}

// CreateDeal creates a deal and associates it with the contact matching the
// email when one exists.
func (c *client) CreateDeal(ctx context.Context, email string, dealName string, properties map[string]string) error {
	if !c.Enabled() {
		c.logger.Debugw("hubspot disabled, skipping deal creation", "email", email)
		return nil
	}

	contactID, err := c.findContactID(ctx, email)
	if err != nil {
		return err
	}

	props := map[string]string{"dealname": dealName}
	for k, v := range properties {
		props[k] = v
	}

	payload := map[string]interface{}{"properties": props}
	if contactID != "" {
		payload["associations"] = []map[string]interface{}{{
			"to": map[string]string{"id": contactID},
			"types": []map[string]interface{}{{
				"associationCategory": "HUBSPOT_DEFINED",
				"associationTypeId":   3, // deal-to-contact
			}},
		}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	if _, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     fmt.Sprintf("%s/crm/v3/objects/deals", c.cfg.BaseURL),
		Headers: c.headers(),
		Body:    body,
	}); err != nil {
		c.logger.Errorw("hubspot deal creation failed",
			"error", err,
			"email", email,
			"deal_name", dealName,
		)
		return ierr.WithError(err).
			WithHint("HubSpot deal creation failed").
			Mark(ierr.ErrHTTPClient)
	}

	c.logger.Infow("hubspot deal created", "email", email, "deal_name", dealName)
	return nil
}
