package httpserver

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/welcome-mailer/internal/config"
	"github.com/PratikDhanave/welcome-mailer/internal/handlers"
	"github.com/PratikDhanave/welcome-mailer/internal/mailer"
	"github.com/PratikDhanave/welcome-mailer/internal/metrics"
)

// recordingSender keeps every message it is asked to send.
type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func newTestRouter(t *testing.T, cfg config.Config, sender mailer.Sender) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	if cfg.FromAddress == "" {
		cfg.FromAddress = config.DefaultFromAddress
	}

	reg := prometheus.NewRegistry()
	logs := &bytes.Buffer{}
	r := NewRouter(cfg, Deps{
		Sender:   sender,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Logger:   slog.New(slog.NewJSONHandler(logs, nil)),
	})
	return r, logs
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, config.Config{}, &recordingSender{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReady(t *testing.T) {
	r, _ := newTestRouter(t, config.Config{}, &recordingSender{})
	w := serve(r, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	r, _ = newTestRouter(t, config.Config{}, nil)
	w = serve(r, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebhookThroughRouter(t *testing.T) {
	sender := &recordingSender{}
	r, logs := newTestRouter(t, config.Config{FromName: "Hired Easy"}, sender)

	body := `{"type":"user.created","data":{"id":"u1","email_addresses":[{"email_address":"a@example.com"}],"first_name":"Ada"}}`
	req := httptest.NewRequest(http.MethodPost, handlers.WebhookPath, strings.NewReader(body))
	req.Header.Set(RequestIDHeader, "req-123")
	w := serve(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "a@example.com", sender.sent[0].To)
	assert.Equal(t, config.DefaultFromAddress, sender.sent[0].From)
	assert.Equal(t, "Hired Easy", sender.sent[0].FromName)

	assert.Contains(t, logs.String(), `"request_id":"req-123"`)
	assert.Contains(t, logs.String(), `"event_type":"user.created"`)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `welcome_mailer_webhook_events_total{event="user.created",outcome="sent"} 1`)
}

func TestRequestIDGenerated(t *testing.T) {
	r, _ := newTestRouter(t, config.Config{}, &recordingSender{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestMetricsRequiresKeyWhenConfigured(t *testing.T) {
	r, _ := newTestRouter(t, config.Config{MetricsAPIKeys: map[string]string{"key-1": "prom"}}, &recordingSender{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-API-Key", "key-1")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	b, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(b), "welcome_mailer_email_send_duration_seconds")
}

func TestAccessLogNamesMetricsClient(t *testing.T) {
	r, logs := newTestRouter(t, config.Config{MetricsAPIKeys: map[string]string{"key-1": "prom"}}, &recordingSender{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-API-Key", "key-1")
	require.Equal(t, http.StatusOK, serve(r, req).Code)
	assert.Contains(t, logs.String(), `"api_client":"prom"`)

	logs.Reset()
	require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	assert.NotContains(t, logs.String(), "api_client")
}

func TestWebhookNonStandardMethodThroughRouter(t *testing.T) {
	sender := &recordingSender{}
	r, _ := newTestRouter(t, config.Config{}, sender)

	for _, method := range []string{"PROPFIND", "MKCOL", http.MethodConnect} {
		w := serve(r, httptest.NewRequest(method, handlers.WebhookPath, nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, http.MethodPost, w.Header().Get("Allow"), method)
		assert.JSONEq(t, `{"error":"Method Not Allowed"}`, w.Body.String(), method)
	}
	assert.Empty(t, sender.sent)

	w := serve(r, httptest.NewRequest("PROPFIND", "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `welcome_mailer_webhook_events_total{event="none",outcome="rejected_method"} 3`)
}
