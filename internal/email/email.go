// Package email provides email sending functionality
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Transport delivers a rendered message to a provider.
type Transport interface {
	Deliver(ctx context.Context, msg *Email) error
}

// Service renders templates and hands messages to a Transport.
type Service struct {
	transport   Transport
	templates   map[string]*template.Template
	frontendURL string
}

// NewService creates an email service. A nil transport yields a service that
// logs and drops every message.
func NewService(transport Transport, frontendURL string) *Service {
	s := &Service{
		transport:   transport,
		templates:   make(map[string]*template.Template),
		frontendURL: frontendURL,
	}
	s.loadTemplates()
	return s
}

// Enabled reports whether messages are actually delivered.
func (s *Service) Enabled() bool {
	return s != nil && s.transport != nil
}

// Send delivers an email through the configured transport.
func (s *Service) Send(ctx context.Context, email *Email) error {
	if !s.Enabled() {
		log.Println("[Email] not configured, skipping send")
		return nil
	}
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	return s.transport.Deliver(ctx, email)
}

// SendWithTemplate sends an email using a template
func (s *Service) SendWithTemplate(ctx context.Context, to []string, subject, templateName string, data interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template not found: %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	return s.Send(ctx, &Email{
		To:       to,
		Subject:  subject,
		Body:     subject,
		HTMLBody: body.String(),
	})
}

// ============================================
// Convenience Methods
// ============================================

// FriendRequestData holds data for friend request emails
type FriendRequestData struct {
	RecipientName string
	SenderName    string
	SenderEmail   string
	FriendsURL    string
}

// SendFriendRequest tells a user someone wants to be their friend.
func (s *Service) SendFriendRequest(ctx context.Context, to string, data FriendRequestData) error {
	if data.FriendsURL == "" {
		data.FriendsURL = s.frontendURL + "/friends"
	}
	return s.SendWithTemplate(ctx,
		[]string{to},
		fmt.Sprintf("%s wants to be your friend on Sticky Desk", data.SenderName),
		"friend_request",
		data,
	)
}

// FriendAcceptedData holds data for accepted friend request emails
type FriendAcceptedData struct {
	RecipientName string
	FriendName    string
	FriendsURL    string
}

// SendFriendAccepted tells the original sender their request was accepted.
func (s *Service) SendFriendAccepted(ctx context.Context, to string, data FriendAcceptedData) error {
	if data.FriendsURL == "" {
		data.FriendsURL = s.frontendURL + "/friends"
	}
	return s.SendWithTemplate(ctx,
		[]string{to},
		fmt.Sprintf("%s accepted your friend request", data.FriendName),
		"friend_accepted",
		data,
	)
}
