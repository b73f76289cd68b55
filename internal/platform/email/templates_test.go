package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderForgotPassword(t *testing.T) {
	body, err := Render(TemplateForgotPassword, map[string]string{
		"username":  "John",
		"resetLink": "https://chatter.example.com/reset?token=abc",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Hello John")
	assert.Contains(t, body, "https://chatter.example.com/reset?token=abc")
}

func TestRenderResetConfirm(t *testing.T) {
	body, err := Render(TemplateResetConfirm, map[string]string{
		"username":  "John",
		"email":     "john@example.com",
		"date":      "2026-08-29",
		"ipaddress": "203.0.113.9",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "john@example.com")
	assert.Contains(t, body, "203.0.113.9")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("no-such-template", nil)
	assert.Error(t, err)
}

func TestRenderEscapesHTML(t *testing.T) {
	body, err := Render(TemplateForgotPassword, map[string]string{
		"username":  "<script>alert(1)</script>",
		"resetLink": "https://chatter.example.com/reset",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}
