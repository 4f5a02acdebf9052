package ports

import "context"

// Notification template names.
const (
	TemplateRegistration  = "registration"
	TemplateOTP           = "otp_verification"
	TemplatePasswordReset = "password_reset"
)

// Notifier hands a templated message to the outbound mail pipeline. Delivery is
// best-effort; a nil error only means the message was accepted.
type Notifier interface {
	Send(ctx context.Context, template, recipient string, vars map[string]string) error
}

// OutboundMail is a notification accepted for delivery.
type OutboundMail struct {
	ID        string            `json:"id"`
	Template  string            `json:"template"`
	Recipient string            `json:"recipient"`
	Vars      map[string]string `json:"vars"`
}

// MailTransport delivers a single message synchronously.
type MailTransport interface {
	Deliver(ctx context.Context, msg OutboundMail) error
}
