package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// InviteEmailData holds data for the collaboration invite email.
type InviteEmailData struct {
	Email          string
	InviterName    string
	CollectionName string
	Role           string
	Message        string
	InviteURL      string
	ExpiresInDays  int
}

// InviteDecisionEmailData holds data for the accepted/declined notification
// email sent back to the inviter.
type InviteDecisionEmailData struct {
	Email          string
	InviteeEmail   string
	CollectionName string
	Accepted       bool
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendInvite(ctx context.Context, data *InviteEmailData) error
	SendInviteDecision(ctx context.Context, data *InviteDecisionEmailData) error
}
