package llm

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/pkg/circuitbreaker"
	"github.com/portfolio/backend/pkg/logger"
	"github.com/portfolio/backend/pkg/retry"
)

var ErrEmptyPrompt = errors.New("prompt is required")

type Config struct {
	Model             string
	Template          string
	MaxAttempts       int
	RetryInitialDelay time.Duration
	Timeout           time.Duration
	// CircuitBreaker stops calling an upstream that keeps failing with 5xx
	// or network errors. Off by default: every failure is reported with the
	// upstream's own status.
	CircuitBreaker bool
}

// Client turns prompts into plain reply text. Model warm-up (503) is retried
// with backoff; every other failure is returned at once.
type Client struct {
	transport   Transport
	template    string
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

type Request struct {
	Prompt string
	// Question is stripped from the front of the reply if the model echoes it.
	Question string
	// Raw sends Prompt without the model instruction template.
	Raw bool
}

// chatTransport is implemented by transports whose endpoint applies the
// model's chat template itself.
type chatTransport interface {
	appliesChatTemplate() bool
}

func NewClient(transport Transport, cfg Config) (*Client, error) {
	template, err := ResolveTemplate(cfg.Template, cfg.Model)
	if err != nil {
		return nil, err
	}
	if ct, ok := transport.(chatTransport); ok && ct.appliesChatTemplate() && template != TemplateNone {
		logger.Info("Chat endpoint templates prompts itself, sending them unwrapped",
			zap.String("transport", transport.Name()),
			zap.String("template", template),
		)
		template = TemplateNone
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryInitialDelay <= 0 {
		cfg.RetryInitialDelay = time.Second
	}

	c := &Client{
		transport: transport,
		template:  template,
		timeout:   cfg.Timeout,
	}

	if cfg.CircuitBreaker {
		c.cb = circuitbreaker.NewCircuitBreaker("inference", circuitbreaker.Config{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 1,
			IsSuccessful:     countsAsHealthy,
			Logger:           logger.Named("breaker"),
		})
	}

	name := transport.Name()
	c.retryConfig = retry.Config{
		MaxAttempts:     cfg.MaxAttempts,
		InitialDelay:    cfg.RetryInitialDelay,
		MaxDelay:        10 * time.Second,
		Multiplier:      2.0,
		RetryableErrors: []error{ErrModelLoading},
		OnAttempt: func(_ int, err error) {
			metrics.UpstreamAttempts.WithLabelValues(name, attemptOutcome(err)).Inc()
		},
		Logger: logger.Named("retry"),
	}

	logger.Info("LLM client initialized",
		zap.String("transport", name),
		zap.String("model", cfg.Model),
		zap.String("template", template),
		zap.Int("max_attempts", cfg.MaxAttempts),
		zap.Bool("circuit_breaker", cfg.CircuitBreaker),
	)

	return c, nil
}

// countsAsHealthy keeps caller mistakes (bad key, quota, odd body) from
// opening the breaker; only an unavailable upstream does.
func countsAsHealthy(err error) bool {
	switch Classify(err) {
	case KindTransient, KindNetwork, KindUpstream:
		return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	default:
		return true
	}
}

// attemptOutcome labels one upstream call: "ok", the HTTP status of an
// error response, or the error kind when there was no usable response.
func attemptOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return strconv.Itoa(upErr.StatusCode)
	}
	return string(Classify(err))
}

func (c *Client) TransportName() string {
	return c.transport.Name()
}

func (c *Client) Template() string {
	return c.template
}

func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	sent := prompt
	if !req.Raw {
		sent = ApplyTemplate(c.template, prompt)
	}

	name := c.transport.Name()
	start := time.Now()

	call := func() (string, error) {
		return retry.DoWithResult(ctx, c.retryConfig, func() (string, error) {
			return c.attempt(ctx, name, sent)
		})
	}

	var text string
	var err error
	if c.cb != nil {
		text, err = circuitbreaker.Run(ctx, c.cb, call)
	} else {
		text, err = call()
	}

	metrics.ChatDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ChatRequests.WithLabelValues(string(Classify(err))).Inc()
		logger.Error("Inference request failed",
			zap.String("transport", name),
			zap.String("kind", string(Classify(err))),
			zap.Error(err),
		)
		return "", err
	}

	metrics.ChatRequests.WithLabelValues("ok").Inc()

	reply := CleanReply(text, sent, req.Question)
	if sent != prompt {
		reply = CleanReply(reply, prompt, req.Question)
	}

	logger.Debug("Inference reply received",
		zap.String("transport", name),
		zap.Int("reply_length", len(reply)),
	)

	return reply, nil
}

// attempt makes one upstream call and reduces it to generated text.
func (c *Client) attempt(ctx context.Context, name, prompt string) (string, error) {
	raw, err := c.transport.Send(ctx, prompt)
	if err != nil {
		return "", err
	}

	if raw.StatusCode < http.StatusOK || raw.StatusCode >= http.StatusMultipleChoices {
		return "", statusError(raw)
	}

	text, err := ExtractText(raw.Body)
	if err != nil {
		logger.Warn("Unrecognised inference response",
			zap.String("transport", name),
			zap.String("body", truncateRunes(string(raw.Body), maxDetailsLen)),
			zap.Error(err),
		)
		return "", err
	}
	return text, nil
}
