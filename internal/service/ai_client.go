package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/config"
)

// ErrAIGenerationFailed wraps every text generation failure.
var ErrAIGenerationFailed = errors.New("ai text generation failed")

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged prompt message.
type ChatMessage struct {
	Role    string
	Content string
}

// GenerationParams tunes one generation call. Zero values use provider defaults.
type GenerationParams struct {
	Model       string
	MaxTokens   int
	Temperature *float32
}

// UsageInfo is the token usage reported (or estimated) for a call.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Estimated        bool
}

// ProviderError carries the HTTP status and a body excerpt of a failed provider call.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AIClient generates text from chat messages.
type AIClient interface {
	GenerateText(ctx context.Context, messages []ChatMessage, params GenerationParams) (string, UsageInfo, error)
	Model() string
}

// NewAIClient builds the client selected by cfg.AIClientType.
func NewAIClient(cfg *config.Config, logger *zap.Logger) (AIClient, error) {
	switch strings.ToLower(cfg.AIClientType) {
	case "", "openai":
		return newOpenAIClient(cfg, logger), nil
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type %q", cfg.AIClientType)
	}
}

type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

var _ AIClient = (*openAIClient)(nil)

func newOpenAIClient(cfg *config.Config, logger *zap.Logger) *openAIClient {
	clientCfg := openaigo.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.AIBaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.AITimeout}

	return &openAIClient{
		client: openaigo.NewClientWithConfig(clientCfg),
		model:  cfg.AIModel,
		logger: logger.Named("OpenAIClient"),
	}
}

func (c *openAIClient) Model() string { return c.model }

func (c *openAIClient) GenerateText(ctx context.Context, messages []ChatMessage, params GenerationParams) (string, UsageInfo, error) {
	model := params.Model
	if model == "" {
		model = c.model
	}
	usage := UsageInfo{}

	req := openaigo.ChatCompletionRequest{
		Model:     model,
		Messages:  make([]openaigo.ChatCompletionMessage, 0, len(messages)),
		MaxTokens: params.MaxTokens,
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openaigo.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	aiRequestDuration.With(prometheus.Labels{"model": model}).Observe(duration.Seconds())

	if err != nil {
		aiRequestsTotal.With(prometheus.Labels{"model": model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %w", ErrAIGenerationFailed, toProviderError("openai", err))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": model, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}
	aiRequestsTotal.With(prometheus.Labels{"model": model, "status": "success"}).Inc()

	text := resp.Choices[0].Message.Content
	if resp.Usage.TotalTokens > 0 {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
		usage.TotalTokens = resp.Usage.TotalTokens
	} else {
		usage = estimateUsage(messages, text)
	}
	observeUsage(model, usage)

	c.logger.Debug("AI response received",
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("length", len(text)),
		zap.Int("totalTokens", usage.TotalTokens),
		zap.Bool("estimated", usage.Estimated),
	)
	return text, usage, nil
}

func toProviderError(provider string, err error) error {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: provider, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &ProviderError{Provider: provider, StatusCode: reqErr.HTTPStatusCode, Body: body, Err: err}
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return &ProviderError{Provider: provider, StatusCode: statusErr.StatusCode, Body: statusErr.ErrorMessage, Err: err}
	}
	return &ProviderError{Provider: provider, Err: err}
}

type ollamaClient struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

var _ AIClient = (*ollamaClient)(nil)

func newOllamaClient(cfg *config.Config, logger *zap.Logger) (*ollamaClient, error) {
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.AIBaseURL, "/"), "/v1")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL %q: %w", baseURL, err)
	}
	return &ollamaClient{
		client: api.NewClient(parsed, &http.Client{Timeout: cfg.AITimeout}),
		model:  cfg.AIModel,
		logger: logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) Model() string { return c.model }

func (c *ollamaClient) GenerateText(ctx context.Context, messages []ChatMessage, params GenerationParams) (string, UsageInfo, error) {
	model := params.Model
	if model == "" {
		model = c.model
	}

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: make([]api.Message, 0, len(messages)),
		Stream:   &stream,
		Options:  map[string]interface{}{},
	}
	if params.MaxTokens > 0 {
		req.Options["num_predict"] = params.MaxTokens
	}
	if params.Temperature != nil {
		req.Options["temperature"] = *params.Temperature
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, api.Message{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)
	aiRequestDuration.With(prometheus.Labels{"model": model}).Observe(duration.Seconds())

	if err != nil {
		aiRequestsTotal.With(prometheus.Labels{"model": model, "status": "error"}).Inc()
		return "", UsageInfo{}, fmt.Errorf("%w: %w", ErrAIGenerationFailed, toProviderError("ollama", err))
	}
	text := resp.Message.Content
	if strings.TrimSpace(text) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": model, "status": "error_empty_response"}).Inc()
		return "", UsageInfo{}, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}
	aiRequestsTotal.With(prometheus.Labels{"model": model, "status": "success"}).Inc()

	usage := UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	observeUsage(model, usage)

	c.logger.Debug("Ollama response received",
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("length", len(text)),
	)
	return text, usage, nil
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// estimateUsage counts tokens locally when the provider omits usage.
func estimateUsage(messages []ChatMessage, completion string) UsageInfo {
	encodingOnce.Do(func() {
		if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return UsageInfo{Estimated: true}
	}
	prompt := 0
	for _, m := range messages {
		prompt += len(encoding.Encode(m.Content, nil, nil))
	}
	completionTokens := len(encoding.Encode(completion, nil, nil))
	return UsageInfo{
		PromptTokens:     prompt,
		CompletionTokens: completionTokens,
		TotalTokens:      prompt + completionTokens,
		Estimated:        true,
	}
}

func observeUsage(model string, usage UsageInfo) {
	if usage.TotalTokens <= 0 {
		return
	}
	aiPromptTokens.With(prometheus.Labels{"model": model}).Observe(float64(usage.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": model}).Observe(float64(usage.CompletionTokens))
}
