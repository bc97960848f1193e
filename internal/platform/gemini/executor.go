package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/checklist-api/internal/config"
	"github.com/phrazzld/checklist-api/internal/generation"
	"google.golang.org/genai"
)

// ContentGenerator is the part of the genai client the executor uses.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Executor implements generation.Executor using the Gemini API.
type Executor struct {
	logger    *slog.Logger
	models    ContentGenerator
	model     string
	prompt    *template.Template
	retries   int
	baseDelay time.Duration
	rng       *rand.Rand
}

// NewExecutor creates a Gemini client from configuration and wraps it.
func NewExecutor(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Executor, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return NewExecutorWithClient(logger, cfg, client.Models)
}

// NewExecutorWithClient wraps an existing content generator.
func NewExecutorWithClient(logger *slog.Logger, cfg config.LLMConfig, models ContentGenerator) (*Executor, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if models == nil {
		return nil, fmt.Errorf("%w: content generator cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	prompt, err := loadPrompt(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	retries := cfg.MaxRetries
	if retries < 0 {
		logger.Warn("invalid max retries value, using default", "max_retries", 3)
		retries = 3
	}

	delaySeconds := cfg.RetryDelaySeconds
	if delaySeconds < 1 {
		logger.Warn("invalid retry delay value, using default", "base_delay_seconds", 2)
		delaySeconds = 2
	}

	return &Executor{
		logger:    logger.With("component", "gemini_executor", "model", cfg.ModelName),
		models:    models,
		model:     cfg.ModelName,
		prompt:    prompt,
		retries:   retries,
		baseDelay: time.Duration(delaySeconds) * time.Second,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Execute renders the prompt and calls the model.
func (e *Executor) Execute(ctx context.Context, req generation.Request) (string, error) {
	prompt, err := renderPrompt(e.prompt, req)
	if err != nil {
		return "", err
	}

	e.logger.DebugContext(ctx, "prompt rendered",
		"prompt_length", len(prompt),
		"history_length", len(req.History))

	return e.callWithRetry(ctx, prompt)
}

// callWithRetry calls the API up to retries+1 times, with exponential backoff
// and jitter between transient failures. Safety blocks and malformed
// responses are returned at once.
func (e *Executor) callWithRetry(ctx context.Context, prompt string) (string, error) {
	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1

		resp, err := e.models.GenerateContent(ctx, e.model, genai.Text(prompt), nil)
		if err == nil {
			var text string
			text, err = extractText(resp)
			if err == nil {
				e.logger.InfoContext(ctx, "Gemini API call successful", "attempt", attemptNum)
				return text, nil
			}
		}

		e.logger.ErrorContext(ctx, "Gemini API call failed", "attempt", attemptNum, "error", err)

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return "", err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctxErr)
		}

		if attempt >= e.retries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, e.retries, err)
		}

		// delay = baseDelay * 2^attempt * [0.5, 1.0)
		backoff := float64(e.baseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + e.rng.Float64()*0.5))

		e.logger.InfoContext(ctx, "retrying after delay", "attempt", attemptNum, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response blocked by safety filters", generation.ErrContentBlocked)
	}

	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: response contains no text", generation.ErrInvalidResponse)
	}
	return text, nil
}

var _ generation.Executor = (*Executor)(nil)
