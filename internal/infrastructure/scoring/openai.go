package scoring

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// OpenAIModel scores rows with a (fine-tuned) chat completion model.
type OpenAIModel struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	log     logger.Logger
}

// NewOpenAIModel creates the model. apiKey is resolved by the caller from config or the secret store.
func NewOpenAIModel(cfg *config.OpenAIConfig, apiKey string, timeout time.Duration, log logger.Logger) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, errors.ErrConfiguration("openai api key is not configured")
	}
	if cfg.Model == "" {
		return nil, errors.ErrConfiguration("scoring.openai.model is required")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &OpenAIModel{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		limiter: rate.NewLimiter(limit, burst),
		log:     log.WithComponent("OpenAIModel"),
	}, nil
}

// Predict implements service.RiskModel.
func (m *OpenAIModel) Predict(ctx context.Context, row models.Row) (float64, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return 0, errors.WrapError(err, constants.ErrCodePredictionFailure, "openai rate limiter wait aborted")
	}

	req := openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: constants.RiskExpertPersona},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(row)},
		},
		// A zero temperature is dropped by omitempty and the API default applies.
		Temperature: math.SmallestNonzeroFloat32,
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		m.log.Warn(ctx, "openai completion failed", logger.Fields{"model": m.model, "error": err.Error()})
		return 0, errors.WrapError(err, constants.ErrCodePredictionFailure, "openai completion failed")
	}
	if len(resp.Choices) == 0 {
		return 0, errors.ErrPredictionFailure("openai returned no choices")
	}

	score, err := ParseScore(resp.Choices[0].Message.Content)
	if err != nil {
		m.log.Warn(ctx, "openai reply rejected", logger.Fields{
			"model": m.model,
			"reply": resp.Choices[0].Message.Content,
		})
		return 0, err
	}
	return score, nil
}

//Personal.AI order the ending
