// Package app builds the shared components from configuration for the server
// and the CLI.
package app

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/llm"
	"github.com/portfolio/backend/internal/portfolio"
	"github.com/portfolio/backend/internal/resume"
	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/internal/storage/redis"
	"github.com/portfolio/backend/internal/storage/sqlite"
	"github.com/portfolio/backend/internal/widget"
	"github.com/portfolio/backend/pkg/config"
	"github.com/portfolio/backend/pkg/logger"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"

	TransportHuggingFace = "huggingface"
	TransportRelay       = "relay"
	TransportOpenAI      = "openai"
)

func OpenStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		client, err := sqlite.NewClient(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if err := client.InitSchema(); err != nil {
			client.Close()
			return nil, err
		}
		logger.Info("Content store opened", zap.String("driver", DriverSQLite), zap.String("path", cfg.SQLite.Path))
		return client, nil

	case DriverRedis:
		client, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, err
		}
		logger.Info("Content store opened",
			zap.String("driver", DriverRedis),
			zap.String("addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)),
		)
		return client, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func Parameters(cfg config.LLMConfig) llm.Parameters {
	params := llm.DefaultParameters()
	if cfg.MaxNewTokens > 0 {
		params.MaxNewTokens = cfg.MaxNewTokens
	}
	if cfg.Temperature > 0 {
		params.Temperature = cfg.Temperature
	}
	if cfg.TopP > 0 {
		params.TopP = cfg.TopP
	}
	params.ReturnFullText = cfg.ReturnFullText
	return params
}

func NewTransport(cfg config.LLMConfig) (llm.Transport, error) {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	switch cfg.Transport {
	case TransportHuggingFace, "":
		return llm.NewHuggingFaceTransport(cfg.BaseURL, cfg.APIKey, cfg.Model, Parameters(cfg), timeout), nil
	case TransportRelay:
		return llm.NewRelayTransport(cfg.RelayURL, timeout), nil
	case TransportOpenAI:
		return llm.NewOpenAITransport(cfg.BaseURL, cfg.APIKey, cfg.Model, Parameters(cfg), timeout), nil
	}

	return nil, fmt.Errorf("unknown llm transport %q", cfg.Transport)
}

var ErrRelayLoop = errors.New("relay transport would forward the chat endpoint to itself")

// NewLLMClient builds a client for any transport. Callers that talk to a
// running server (the CLI and its chat widget) may use the relay.
func NewLLMClient(cfg config.LLMConfig) (*llm.Client, error) {
	transport, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(transport, clientConfig(cfg))
}

// NewUpstreamClient builds the client behind the server's own chat endpoint.
// It must reach the inference backend directly, so the relay is refused.
func NewUpstreamClient(cfg config.LLMConfig) (*llm.Client, error) {
	if cfg.Transport == TransportRelay {
		return nil, fmt.Errorf("%w: set llm.transport to %s or %s",
			ErrRelayLoop, TransportHuggingFace, TransportOpenAI)
	}
	return NewLLMClient(cfg)
}

func clientConfig(cfg config.LLMConfig) llm.Config {
	return llm.Config{
		Model:             cfg.Model,
		Template:          cfg.Template,
		MaxAttempts:       cfg.MaxAttempts,
		RetryInitialDelay: time.Duration(cfg.RetryInitialDelayMs) * time.Millisecond,
		Timeout:           time.Duration(cfg.TimeoutSec) * time.Second,
		CircuitBreaker:    cfg.CircuitBreaker.Enabled,
	}
}

// SessionFactory returns a constructor for chat widget sessions that share
// one content service and reply generator.
func SessionFactory(svc *portfolio.Service, gen widget.Generator, chat config.ChatConfig) func() *widget.Session {
	rec := resume.Default()
	return func() *widget.Session {
		return widget.NewSession(svc, gen, widget.Options{
			Resume:         rec,
			TrimIncomplete: chat.TrimIncomplete,
		})
	}
}
