package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const errorPreviewLength = 500

// errCallerCancelled marks a provider call cut short by its caller. It says
// nothing about provider health and is kept out of the breaker counts.
var errCallerCancelled = errors.New("request cancelled by caller")

// ProviderGateway wraps the external text and speech providers. Its methods
// never return errors: every failure becomes an empty result and a log line.
type ProviderGateway interface {
	TextEnabled() bool
	SpeechEnabled() bool
	// GenerateText returns "" on any failure.
	GenerateText(ctx context.Context, messages []ChatMessage, maxTokens int) string
	// SynthesizeSpeech returns the audio URL or nil on any failure.
	SynthesizeSpeech(ctx context.Context, text string) *string
}

// GatewayConfig configures NewProviderGateway.
type GatewayConfig struct {
	Model           string
	TextTimeout     time.Duration
	SpeechTimeout   time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

type providerGateway struct {
	ai     AIClient
	speech SpeechClient
	audio  AudioStore
	voices *VoiceSelection
	cfg    GatewayConfig

	textBreaker   *gobreaker.CircuitBreaker[string]
	speechBreaker *gobreaker.CircuitBreaker[[]byte]
	logger        *zap.Logger
}

var _ ProviderGateway = (*providerGateway)(nil)

// NewProviderGateway builds a gateway. A nil ai or speech client disables
// that capability; speech also needs an audio store.
func NewProviderGateway(ai AIClient, speech SpeechClient, audio AudioStore, voices *VoiceSelection, cfg GatewayConfig, logger *zap.Logger) ProviderGateway {
	if voices == nil {
		voices = NewVoiceSelection("")
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	log := logger.Named("ProviderGateway")

	return &providerGateway{
		ai:            ai,
		speech:        speech,
		audio:         audio,
		voices:        voices,
		cfg:           cfg,
		textBreaker:   newBreaker[string]("text-generation", cfg, log),
		speechBreaker: newBreaker[[]byte]("speech-synthesis", cfg, log),
		logger:        log,
	}
}

func newBreaker[T any](name string, cfg GatewayConfig, log *zap.Logger) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:    name,
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, errCallerCancelled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Provider circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

func (g *providerGateway) TextEnabled() bool { return g.ai != nil }

func (g *providerGateway) SpeechEnabled() bool { return g.speech != nil && g.audio != nil }

func (g *providerGateway) GenerateText(ctx context.Context, messages []ChatMessage, maxTokens int) string {
	if !g.TextEnabled() {
		g.logger.Warn("Text generation is not configured, skipping")
		return ""
	}
	if err := ctx.Err(); err != nil {
		g.logger.Debug("Caller gone, skipping text generation", zap.Error(err))
		return ""
	}
	if g.cfg.TextTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.TextTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.textBreaker.Execute(func() (string, error) {
		text, _, err := g.ai.GenerateText(ctx, messages, GenerationParams{Model: g.cfg.Model, MaxTokens: maxTokens})
		return text, markCallerCancelled(ctx, err)
	})
	if err != nil {
		g.logFailure("Text generation failed", err, zap.Duration("duration", time.Since(start)))
		return ""
	}
	return text
}

func (g *providerGateway) SynthesizeSpeech(ctx context.Context, text string) *string {
	if !g.SpeechEnabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		g.logger.Debug("Caller gone, skipping speech synthesis", zap.Error(err))
		return nil
	}
	if g.cfg.SpeechTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.SpeechTimeout)
		defer cancel()
	}

	start := time.Now()
	audio, err := g.speechBreaker.Execute(func() ([]byte, error) {
		voiceID, err := g.resolveVoice(ctx)
		if err != nil {
			return nil, markCallerCancelled(ctx, err)
		}
		audio, err := g.speech.Synthesize(ctx, text, voiceID)
		return audio, markCallerCancelled(ctx, err)
	})
	speechRequestDuration.Observe(time.Since(start).Seconds())
	if errors.Is(err, errCallerCancelled) {
		speechRequestsTotal.WithLabelValues("cancelled").Inc()
		g.logFailure("Speech synthesis failed", err)
		return nil
	}
	if err != nil {
		speechRequestsTotal.WithLabelValues("error").Inc()
		g.logFailure("Speech synthesis failed", err)
		return nil
	}
	speechRequestsTotal.WithLabelValues("success").Inc()

	url, err := g.audio.Save(ctx, audio, "mp3")
	if err != nil {
		g.logger.Error("Failed to store synthesized audio", zap.Error(err))
		return nil
	}
	return &url
}

// resolveVoice returns the chosen voice, discovering one on first use.
func (g *providerGateway) resolveVoice(ctx context.Context) (string, error) {
	if id := g.voices.Get(); id != "" {
		return id, nil
	}
	voices, err := g.speech.ListVoices(ctx)
	if err != nil {
		return "", err
	}
	for _, v := range voices {
		if v.ID != "" {
			chosen := g.voices.SetOnce(v.ID)
			g.logger.Info("Using first available voice", zap.String("voiceID", chosen), zap.String("name", v.Name))
			return chosen, nil
		}
	}
	return "", errors.New("provider returned no voices")
}

// markCallerCancelled tags err when ctx was cancelled from outside. The
// gateway's own timeout surfaces as DeadlineExceeded and stays a failure.
func markCallerCancelled(ctx context.Context, err error) error {
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", errCallerCancelled, err)
	}
	return err
}

func (g *providerGateway) logFailure(msg string, err error, fields ...zap.Field) {
	if errors.Is(err, errCallerCancelled) {
		g.logger.Info(msg+": cancelled by caller", fields...)
		return
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.logger.Warn(msg+": circuit open", fields...)
		return
	}
	fields = append(fields, zap.Error(err))
	var perr *ProviderError
	if errors.As(err, &perr) {
		fields = append(fields,
			zap.String("provider", perr.Provider),
			zap.Int("status", perr.StatusCode),
			zap.String("bodyPreview", preview(perr.Body, errorPreviewLength)))
	}
	g.logger.Error(msg, fields...)
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
