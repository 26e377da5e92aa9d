package email

import (
	"context"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// Service sends the portal's transactional billing emails. Sends are
// best-effort: a disabled client is a logged no-op, never an error the
// caller has to handle.
type Service struct {
	client *EmailClient
	logger *logger.Logger
}

// NewService creates a new email service
func NewService(client *EmailClient, logger *logger.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// Send renders the template and delivers it to the address
func (s *Service) Send(ctx context.Context, to string, kind types.EmailTemplate, data map[string]string) error {
	if !s.client.IsEnabled() {
		s.logger.Warnw("email client is disabled, skipping email send",
			"to", to,
			"template", kind,
		)
		return nil
	}

	subject, html, err := Render(kind, data)
	if err != nil {
		return err
	}

	messageID, err := s.client.SendEmail(ctx, to, subject, html)
	if err != nil {
		s.logger.Errorw("failed to send email",
			"error", err,
			"to", to,
			"template", kind,
		)
		return err
	}

	s.logger.Infow("email sent successfully",
		"message_id", messageID,
		"to", to,
		"template", kind,
	)
	return nil
}
