package email

import (
	"fmt"
	"html/template"
	"strings"
)

// Template names accepted by Render.
const (
	TemplateForgotPassword = "forgot-password"
	TemplateResetConfirm   = "reset-password"
)

const forgotPasswordHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Password reset</h2>
  <p>Hello {{.username}},</p>
  <p>You requested a password reset. Click the link below to choose a new password. The link expires in one hour.</p>
  <p><a href="{{.resetLink}}">Reset your password</a></p>
  <p>If you did not request this, you can safely ignore this email.</p>
</body>
</html>`

const resetConfirmHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Password changed</h2>
  <p>Hello {{.username}},</p>
  <p>The password for {{.email}} was changed on {{.date}} from IP address {{.ipaddress}}.</p>
  <p>If this was not you, reset your password immediately.</p>
</body>
</html>`

var templates = map[string]*template.Template{
	TemplateForgotPassword: template.Must(template.New(TemplateForgotPassword).Parse(forgotPasswordHTML)),
	TemplateResetConfirm:   template.Must(template.New(TemplateResetConfirm).Parse(resetConfirmHTML)),
}

// Render executes the named template with the given data.
func Render(name string, data map[string]string) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %q: %w", name, err)
	}
	return buf.String(), nil
}
