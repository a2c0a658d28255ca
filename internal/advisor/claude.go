// Package advisor implements interfaces.Advisor against the Anthropic
// Claude API: a single system+user exchange per call, rate-limited by a
// token-bucket throttle since the advisory worker is a single goroutine
// calling an external, rate-limited API.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/dawgym/pipeline/internal/interfaces"
)

const defaultModel = "claude-sonnet-4-20250514"

// Advisor implements interfaces.Advisor using the Anthropic Claude API.
type Advisor struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// Config tunes the advisor; zero values fall back to sane defaults.
type Config struct {
	APIKey            string
	Model             string
	MaxTokens         int64
	Timeout           time.Duration
	RequestsPerMinute float64
}

// New builds a Claude-backed Advisor.
func New(cfg Config, logger arbor.ILogger) (*Advisor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("advisor: API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))

	return &Advisor{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Limit(rpm/60.0), 1),
		logger:    logger,
	}, nil
}

// Comment implements interfaces.Advisor: a single system+user exchange,
// throttled and bounded by a fixed timeout.
func (a *Advisor) Comment(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("advisor: rate limiter: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := a.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return "", fmt.Errorf("advisor: claude call failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("advisor: empty response")
	}
	return out.String(), nil
}

var _ interfaces.Advisor = (*Advisor)(nil)
