// Package studyai turns an AI text service into study aids: summaries,
// flashcards, quizzes, rewrites, keywords and difficulty ratings.
package studyai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5"

const (
	defaultMaxRetries  = 3
	defaultMaxTokens   = 1024
	defaultInitialWait = time.Second
)

var (
	// ErrAPIKeyRequired is returned when no API key is configured.
	ErrAPIKeyRequired = errors.New("API key required")
	// ErrUnexpectedResponse is returned when the reply holds no text block.
	ErrUnexpectedResponse = errors.New("unexpected response format")
)

// Completer is the AI text service: a prompt in, text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// AnthropicConfig configures the Anthropic-backed completer.
type AnthropicConfig struct {
	APIKey     string
	Model      string
	MaxTokens  int64
	MaxRetries int
	// InitialWait is the first retry delay; later delays grow exponentially.
	InitialWait time.Duration
	Logger      *slog.Logger
}

// Anthropic implements Completer with the Messages API.
// Rate limits, 5xx responses and network timeouts are retried.
type Anthropic struct {
	client anthropic.Client
	config AnthropicConfig
}

// NewAnthropic creates the client. ANTHROPIC_API_KEY takes precedence over config.APIKey.
func NewAnthropic(config AnthropicConfig) (*Anthropic, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		config.APIKey = envKey
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or ai.api_key", ErrAPIKeyRequired)
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	} else if config.MaxRetries == 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if config.InitialWait <= 0 {
		config.InitialWait = defaultInitialWait
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	return &Anthropic{
		client: anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		config: config,
	}, nil
}

// Model returns the model name in use.
func (a *Anthropic) Model() string {
	return a.config.Model
}

// Complete sends prompt as a single user message and returns the first text block.
func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.config.Model),
		MaxTokens: a.config.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var text string
	attempt := 0
	op := func() error {
		attempt++
		t0 := time.Now()
		message, err := a.client.Messages.New(ctx, params)
		if err != nil {
			a.config.Logger.Debug("ai request failed", "attempt", attempt, "error", err)
			if ctx.Err() != nil || !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		a.config.Logger.Debug("ai request done",
			"model", a.config.Model,
			"attempt", attempt,
			"input_tokens", message.Usage.InputTokens,
			"output_tokens", message.Usage.OutputTokens,
			"duration", time.Since(t0),
		)

		if len(message.Content) == 0 {
			return backoff.Permanent(fmt.Errorf("%w: no content blocks", ErrUnexpectedResponse))
		}
		content := message.Content[0]
		if content.Type != "text" {
			return backoff.Permanent(fmt.Errorf("%w: not a text block (type=%s)", ErrUnexpectedResponse, content.Type))
		}
		text = content.Text
		return nil
	}

	if err := backoff.Retry(op, a.newBackOff(ctx)); err != nil {
		return "", fmt.Errorf("ai completion failed after %d attempt(s): %w", attempt, err)
	}
	return text, nil
}

func (a *Anthropic) newBackOff(ctx context.Context) backoff.BackOff {
	// BackOff implementations are stateful; build one per call.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.config.InitialWait
	bo.Multiplier = 2
	bo.MaxElapsedTime = 2 * time.Minute
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(a.config.MaxRetries)), ctx)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	return false
}
