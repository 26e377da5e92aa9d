package email

import (
	"testing"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	subject, html, err := Render(types.EmailTemplateEarlyTerminationFee, map[string]string{
		"client_name":      "Rosa's Diner",
		"ref_code":         "RC-TEST1234",
		"fee_amount":       "105000",
		"months_remaining": "3",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, subject)
	assert.Contains(t, html, "Rosa's Diner")
	assert.Contains(t, html, "105000")
	assert.Contains(t, html, "RC-TEST1234")
	assert.NotContains(t, html, "{{")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render(types.EmailTemplate("nonexistent"), nil)
	assert.Error(t, err)
}
