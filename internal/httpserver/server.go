package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PratikDhanave/welcome-mailer/internal/auth"
	"github.com/PratikDhanave/welcome-mailer/internal/config"
	"github.com/PratikDhanave/welcome-mailer/internal/handlers"
	"github.com/PratikDhanave/welcome-mailer/internal/mailer"
	"github.com/PratikDhanave/welcome-mailer/internal/metrics"
)

// Deps are the runtime collaborators the router wires into handlers.
type Deps struct {
	Sender   mailer.Sender
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter wires public endpoints, the webhook and the metrics endpoint.
// Public: /health, /ready, /api/clerk-webhook
// Key-guarded when METRICS_API_KEYS is set: /metrics
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID(), AccessLog(deps.Logger))

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: a wiring check only. main refuses to start without a sender, and
	// SendGrid itself is not probed; provider outages surface as webhook 500s.
	r.GET("/ready", func(c *gin.Context) {
		if deps.Sender == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": "email sender not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics",
		auth.APIKeyMiddleware(cfg.MetricsAPIKeys),
		gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})),
	)

	webhookDeps := handlers.WebhookDeps{
		Sender:   deps.Sender,
		From:     cfg.FromAddress,
		FromName: cfg.FromName,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
	}
	handlers.RegisterWebhookRoutes(r, webhookDeps)
	// Non-standard methods have no gin tree; route them to the webhook's 405.
	r.NoRoute(handlers.WebhookFallback(webhookDeps))

	return r
}
