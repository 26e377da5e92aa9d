package email

import (
	"context"
	"fmt"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	"github.com/resend/resend-go/v2"
)

// EmailClient wraps the Resend client. When no API key is configured the
// client is disabled and sends become logged no-ops at the service layer.
type EmailClient struct {
	client      *resend.Client
	enabled     bool
	fromAddress string
	fromName    string
}

// NewEmailClient creates a new email client
func NewEmailClient(cfg *config.Configuration) *EmailClient {
	if cfg.Email.APIKey == "" {
		return &EmailClient{enabled: false}
	}

	return &EmailClient{
		client:      resend.NewClient(cfg.Email.APIKey),
		enabled:     true,
		fromAddress: cfg.Email.FromAddress,
		fromName:    cfg.Email.FromName,
	}
}

// IsEnabled returns whether the email client is enabled
func (c *EmailClient) IsEnabled() bool {
	return c.enabled
}

// GetFromAddress returns the configured sender, with display name when set
func (c *EmailClient) GetFromAddress() string {
	if c.fromName != "" {
		return fmt.Sprintf("%s <%s>", c.fromName, c.fromAddress)
	}
	return c.fromAddress
}

// SendEmail sends an HTML email and returns the provider message id
func (c *EmailClient) SendEmail(ctx context.Context, to, subject, htmlContent string) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("email client is disabled")
	}

	params := &resend.SendEmailRequest{
		From:    c.GetFromAddress(),
		To:      []string{to},
		Subject: subject,
		Html:    htmlContent,
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}
