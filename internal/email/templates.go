package email

import (
	"fmt"
	"strings"

	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

type template struct {
	subject string
	html    string
}

// Templates are embedded rather than read from disk; the portal ships three
// billing notifications and nothing else.
var templates = map[types.EmailTemplate]template{
	types.EmailTemplatePaymentFailed: {
		subject: "Payment failed for your consulting subscription",
		html: `<p>Hi {{client_name}},</p>
<p>We couldn't process the latest payment for your subscription. Please update
your payment method to keep your plan active.</p>
<p>Reference: {{ref_code}}</p>`,
	},
	types.EmailTemplateEarlyTerminationFee: {
		subject: "Early termination fee for your consulting agreement",
		html: `<p>Hi {{client_name}},</p>
<p>Your cancellation falls inside the minimum commitment period. An early
termination fee of {{fee_amount}} covering {{months_remaining}} remaining
month(s) has been added to your final invoice.</p>
<p>Reference: {{ref_code}}</p>`,
	},
	types.EmailTemplateSubscriptionCancelled: {
		subject: "Your consulting subscription has been cancelled",
		html: `<p>Hi {{client_name}},</p>
<p>Your subscription has been cancelled. We'd love to work with you again.</p>
<p>Reference: {{ref_code}}</p>`,
	},
}

// Render resolves a template kind into subject and HTML with the
// placeholders substituted.
func Render(kind types.EmailTemplate, data map[string]string) (subject string, html string, err error) {
	t, ok := templates[kind]
	if !ok {
		return "", "", ierr.NewError("unknown email template").
			WithHintf("No template registered for %s", kind).
			Mark(ierr.ErrValidation)
	}
	html = t.html
	for key, value := range data {
		html = strings.ReplaceAll(html, fmt.Sprintf("{{%s}}", key), value)
	}
	return t.subject, html, nil
}
