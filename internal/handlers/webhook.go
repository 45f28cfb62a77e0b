package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/welcome-mailer/internal/logging"
	"github.com/PratikDhanave/welcome-mailer/internal/mailer"
	"github.com/PratikDhanave/welcome-mailer/internal/metrics"
	"github.com/PratikDhanave/welcome-mailer/internal/models"
)

// WebhookPath is where the identity provider delivers events.
const WebhookPath = "/api/clerk-webhook"

// maxBodyBytes caps the raw webhook body.
const maxBodyBytes = 1 << 20

const (
	msgWelcomeSent      = "Welcome email sent successfully"
	msgFailed           = "Failed to handle webhook"
	msgMethodNotAllowed = "Method Not Allowed"
)

// eventNone labels deliveries whose event type was never read.
const eventNone = "none"

// WebhookDeps are the collaborators of the webhook endpoint.
type WebhookDeps struct {
	Sender   mailer.Sender
	From     string
	FromName string
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// RegisterWebhookRoutes registers the intake endpoint.
//
// POST /api/clerk-webhook
// - Reads the raw body itself; no gin binding
// - user.created → welcome email, 200
// - any other type → 204, nothing sent
// - any failure → 500 with a uniform body; nothing is retried
//
// Every other method gets 405 with Allow: POST. Any only covers the standard
// methods; pair it with WebhookFallback on the engine's NoRoute for the rest.
func RegisterWebhookRoutes(r gin.IRoutes, deps WebhookDeps) {
	r.Any(WebhookPath, webhookHandler(deps))
}

// WebhookFallback serves the webhook path for methods gin has no tree for,
// so they get 405 instead of 404. Other paths fall through to gin's 404.
func WebhookFallback(deps WebhookDeps) gin.HandlerFunc {
	h := webhookHandler(deps)
	return func(c *gin.Context) {
		if c.Request.URL.Path != WebhookPath {
			return
		}
		h(c)
	}
}

func webhookHandler(deps WebhookDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := logging.RequestLogger(c, deps.Logger)

		if c.Request.Method != http.MethodPost {
			deps.Metrics.RecordEvent(eventNone, metrics.OutcomeRejectedMethod)
			c.Header("Allow", http.MethodPost)
			c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: msgMethodNotAllowed})
			return
		}

		event, err := readEvent(c.Writer, c.Request)
		if err != nil {
			fail(c, logger, deps.Metrics, eventNone, err)
			return
		}

		class := metrics.EventClass(event.Type, models.EventUserCreated)
		logger = logger.With(slog.String("event_type", event.Type))
		logger.Info("webhook received")

		if event.Type != models.EventUserCreated {
			logger.Debug("ignoring unhandled webhook event")
			deps.Metrics.RecordEvent(class, metrics.OutcomeSkipped)
			c.JSON(http.StatusNoContent, gin.H{})
			return
		}

		user, to, err := sendWelcome(c.Request.Context(), deps, event.Data)
		if err != nil {
			fail(c, logger, deps.Metrics, class, err)
			return
		}

		// The address is personal data; keep it out of info-level logs.
		logger.Info("welcome email sent", slog.String("user_id", user.ID))
		logger.Debug("welcome email recipient", slog.String("to", to))
		deps.Metrics.RecordEvent(class, metrics.OutcomeSent)
		c.JSON(http.StatusOK, models.WebhookAcceptedResponse{Message: msgWelcomeSent})
	}
}

// readEvent buffers the whole body before decoding it as an event envelope.
func readEvent(w http.ResponseWriter, r *http.Request) (models.WebhookEvent, error) {
	var event models.WebhookEvent

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return event, failure(KindReadBody, "read body: %w", err)
	}
	if !utf8.Valid(body) {
		return event, failure(KindParse, "body is not valid UTF-8")
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		return event, failure(KindParse, "body is not a JSON object")
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return event, failure(KindParse, "decode event: %w", err)
	}
	return event, nil
}

// sendWelcome decodes the user record and sends the welcome email.
// It returns the decoded user and the recipient address.
func sendWelcome(ctx context.Context, deps WebhookDeps, data json.RawMessage) (models.UserRecord, string, error) {
	var user models.UserRecord
	if err := json.Unmarshal(data, &user); err != nil {
		return user, "", failure(KindParse, "decode user data: %w", err)
	}

	to, err := user.PrimaryEmail()
	if err != nil {
		return user, "", failure(KindMissingRecipient, "user %q: %w", user.ID, err)
	}

	msg := mailer.NewWelcomeMessage(deps.From, deps.FromName, to, user.DisplayName())

	start := time.Now()
	err = deps.Sender.Send(ctx, msg)
	deps.Metrics.ObserveSend(start)
	if err != nil {
		return user, "", failure(KindProvider, "send welcome email for user %q: %w", user.ID, err)
	}
	return user, to, nil
}

func fail(c *gin.Context, logger *slog.Logger, m *metrics.Metrics, class string, err error) {
	kind := FailureKind("unknown")
	var werr *WebhookError
	if errors.As(err, &werr) {
		kind = werr.Kind
	}

	logger.Error("error processing webhook",
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	m.RecordFailure(string(kind))
	m.RecordEvent(class, metrics.OutcomeFailed)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msgFailed})
}
