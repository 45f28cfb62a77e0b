// Package mailer holds the outbound email capability: the Sender port, the
// welcome message the service sends, and the SendGrid-backed implementation.
package mailer

import (
	"context"
	"fmt"
	"html"
)

// Welcome message content. Kept as plain string interpolation.
const (
	WelcomeSubject   = "Welcome to Our Platform!"
	welcomeGreeting  = "Hello %s, welcome to our platform!"
	welcomeHTMLFrame = "<strong>%s</strong>"
)

// Sender delivers a single email. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one outbound email.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	Text     string
	HTML     string
}

// NewWelcomeMessage builds the welcome email for a newly created user.
// name is interpolated as-is into the text body and escaped in the HTML body.
func NewWelcomeMessage(from, fromName, to, name string) Message {
	return Message{
		From:     from,
		FromName: fromName,
		To:       to,
		Subject:  WelcomeSubject,
		Text:     fmt.Sprintf(welcomeGreeting, name),
		HTML:     fmt.Sprintf(welcomeHTMLFrame, fmt.Sprintf(welcomeGreeting, html.EscapeString(name))),
	}
}
