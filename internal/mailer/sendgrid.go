package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/time/rate"
)

const sendEndpoint = "/v3/mail/send"

// ProviderError is returned when SendGrid answers with a non-2xx status.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("sendgrid rejected message: status %d: %s", e.StatusCode, e.Body)
}

// SendGridOptions configures a SendGridSender.
type SendGridOptions struct {
	APIKey     string
	BaseURL    string        // empty uses the public SendGrid API
	RatePerSec float64       // 0 disables throttling
	Timeout    time.Duration // 0 means no per-send deadline
}

// SendGridSender sends mail through the SendGrid v3 API.
type SendGridSender struct {
	apiKey  string
	host    string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewSendGridSender validates opts and returns a ready sender.
func NewSendGridSender(opts SendGridOptions) (*SendGridSender, error) {
	if opts.APIKey == "" {
		return nil, errors.New("sendgrid api key required")
	}
	if opts.RatePerSec < 0 {
		return nil, errors.New("sendgrid rate must be non-negative")
	}

	s := &SendGridSender{
		apiKey:  opts.APIKey,
		host:    opts.BaseURL,
		timeout: opts.Timeout,
	}
	if opts.RatePerSec > 0 {
		burst := int(opts.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return s, nil
}

// Send delivers msg. A request is built per call so concurrent sends never
// share request state.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("sendgrid rate limit wait: %w", err)
		}
	}

	from := mail.NewEmail(msg.FromName, msg.From)
	to := mail.NewEmail("", msg.To)
	body := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	req := sendgrid.GetRequest(s.apiKey, sendEndpoint, s.host)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(body)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return nil
}
