package services

import (
	"context"
	"fmt"
	"log"

	"bookmarkly/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendInvite sends the collaboration invite email using the "invite" template.
func (s *emailService) SendInvite(ctx context.Context, data *domain.InviteEmailData) error {
	if data == nil {
		return fmt.Errorf("invite email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("invite", data)
	if err != nil {
		return fmt.Errorf("failed to render invite template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	log.Printf("[EMAIL] Invite sent to %s", data.Email)
	return nil
}

// SendInviteDecision notifies the inviter that their invite was accepted or
// declined, using the "invite_decision" template.
func (s *emailService) SendInviteDecision(ctx context.Context, data *domain.InviteDecisionEmailData) error {
	if data == nil {
		return fmt.Errorf("invite decision email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("invite_decision", data)
	if err != nil {
		return fmt.Errorf("failed to render invite_decision template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send invite decision email: %w", err)
	}
	log.Printf("[EMAIL] Invite decision sent to %s", data.Email)
	return nil
}
