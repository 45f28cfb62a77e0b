package handlers

import "fmt"

// FailureKind classifies why a webhook delivery failed. It is logged and
// counted but never returned to the caller.
type FailureKind string

const (
	KindReadBody         FailureKind = "read_body"
	KindParse            FailureKind = "parse"
	KindMissingRecipient FailureKind = "missing_recipient"
	KindProvider         FailureKind = "provider"
)

// WebhookError wraps a failure with its kind.
type WebhookError struct {
	Kind FailureKind
	Err  error
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *WebhookError) Unwrap() error {
	return e.Err
}

func failure(kind FailureKind, format string, args ...any) *WebhookError {
	return &WebhookError{Kind: kind, Err: fmt.Errorf(format, args...)}
}
