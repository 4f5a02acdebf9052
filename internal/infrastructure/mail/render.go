// Package mail renders notification templates and delivers them over SMTP,
// AMQP or the application log.
package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/quillpost/blog-api/internal/core/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrUnknownTemplate = errors.New("unknown mail template")

var defaultSubjects = map[string]string{
	ports.TemplateRegistration:  "Registration Successful",
	ports.TemplateOTP:           "Email Verification OTP",
	ports.TemplatePasswordReset: "Password Reset",
}

// Renderer turns an OutboundMail into a subject line and an HTML body.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render uses vars["title"] as the subject when present.
func (r *Renderer) Render(msg ports.OutboundMail) (subject, body string, err error) {
	t := r.tmpl.Lookup(msg.Template + ".html")
	if t == nil {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownTemplate, msg.Template)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, msg.Vars); err != nil {
		return "", "", fmt.Errorf("render %s: %w", msg.Template, err)
	}

	subject = msg.Vars["title"]
	if subject == "" {
		subject = defaultSubjects[msg.Template]
	}
	return subject, buf.String(), nil
}
