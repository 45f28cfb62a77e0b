package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// EventUserCreated is the only event type that triggers a welcome email.
const EventUserCreated = "user.created"

// DefaultDisplayName is used in greetings when the user has no first name.
const DefaultDisplayName = "User"

// ErrNoRecipient is returned when a user record carries no usable email address.
var ErrNoRecipient = errors.New("user has no email address")

// WebhookEvent is the envelope delivered by the identity provider.
// Data is kept raw and only decoded for event types we act on.
type WebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserRecord is the user snapshot carried by "user.created" events.
type UserRecord struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	FirstName      *string        `json:"first_name,omitempty"`
}

// EmailAddress is a nested object within the user record.
type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// PrimaryEmail returns the first email address of the user.
func (u UserRecord) PrimaryEmail() (string, error) {
	if len(u.EmailAddresses) == 0 {
		return "", ErrNoRecipient
	}
	addr := strings.TrimSpace(u.EmailAddresses[0].EmailAddress)
	if addr == "" {
		return "", ErrNoRecipient
	}
	return addr, nil
}

// DisplayName returns the first name, or DefaultDisplayName when it is absent.
func (u UserRecord) DisplayName() string {
	if u.FirstName == nil || *u.FirstName == "" {
		return DefaultDisplayName
	}
	return *u.FirstName
}

// WebhookAcceptedResponse is returned when the welcome email was sent.
type WebhookAcceptedResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
