package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Panchalparth471/app-backend/internal/config"
)

// ErrSpeechFailed wraps every speech synthesis failure.
var ErrSpeechFailed = errors.New("speech synthesis failed")

const (
	apiKeyHeader     = "xi-api-key"
	maxErrorBodyRead = 4096
	maxAudioBytes    = 50 << 20
)

// Voice is a synthesis voice offered by the provider.
type Voice struct {
	ID   string `json:"voice_id"`
	Name string `json:"name"`
}

// VoiceSettings tunes the synthesized voice.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// SpeechClient talks to a text-to-speech provider.
type SpeechClient interface {
	ListVoices(ctx context.Context) ([]Voice, error)
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

type elevenLabsClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	modelID    string
	settings   VoiceSettings
}

var _ SpeechClient = (*elevenLabsClient)(nil)

// NewSpeechClient creates an ElevenLabs-compatible client.
func NewSpeechClient(cfg *config.Config) SpeechClient {
	return newElevenLabsClient(cfg.TTSBaseURL, cfg.TTSAPIKey, cfg.TTSModelID,
		VoiceSettings{Stability: cfg.TTSStability, SimilarityBoost: cfg.TTSSimilarity},
		cfg.TTSTimeout)
}

func newElevenLabsClient(baseURL, apiKey, modelID string, settings VoiceSettings, timeout time.Duration) *elevenLabsClient {
	return &elevenLabsClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		modelID:    modelID,
		settings:   settings,
	}
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

func (c *elevenLabsClient) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create voices request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpeechFailed, &ProviderError{Provider: "elevenlabs", Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w", ErrSpeechFailed, readProviderError(resp))
	}

	var body voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode voices: %w", ErrSpeechFailed, err)
	}
	return body.Voices, nil
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

func (c *elevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrSpeechFailed)
	}
	if voiceID == "" {
		return nil, fmt.Errorf("%w: empty voice id", ErrSpeechFailed)
	}

	payload, err := json.Marshal(synthesizeRequest{Text: text, ModelID: c.modelID, VoiceSettings: c.settings})
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpeechFailed, &ProviderError{Provider: "elevenlabs", Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w", ErrSpeechFailed, readProviderError(resp))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read audio: %w", ErrSpeechFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", ErrSpeechFailed)
	}
	return audio, nil
}

func readProviderError(resp *http.Response) *ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyRead))
	return &ProviderError{
		Provider:   "elevenlabs",
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Err:        fmt.Errorf("unexpected status %s", resp.Status),
	}
}
