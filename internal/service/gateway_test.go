package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/mocks"
	"github.com/Panchalparth471/app-backend/internal/service"
)

var gatewayCfg = service.GatewayConfig{
	Model:           "test-model",
	TextTimeout:     time.Second,
	SpeechTimeout:   time.Second,
	BreakerFailures: 2,
	BreakerCooldown: time.Minute,
}

var prompt = []service.ChatMessage{{Role: service.RoleUser, Content: "tell a story"}}

func TestGateway_Unconfigured(t *testing.T) {
	gw := service.NewProviderGateway(nil, nil, nil, nil, gatewayCfg, zap.NewNop())

	assert.False(t, gw.TextEnabled())
	assert.False(t, gw.SpeechEnabled())
	assert.Empty(t, gw.GenerateText(context.Background(), prompt, 100))
	assert.Nil(t, gw.SynthesizeSpeech(context.Background(), "hello"))
}

func TestGateway_SpeechNeedsAudioStore(t *testing.T) {
	gw := service.NewProviderGateway(nil, new(mocks.MockSpeechClient), nil, nil, gatewayCfg, zap.NewNop())
	assert.False(t, gw.SpeechEnabled())
}

func TestGateway_GenerateText(t *testing.T) {
	ai := new(mocks.MockAIClient)
	ai.On("GenerateText", mock.Anything, prompt, service.GenerationParams{Model: "test-model", MaxTokens: 100}).
		Return("[]", service.UsageInfo{TotalTokens: 3}, nil).Once()
	gw := service.NewProviderGateway(ai, nil, nil, nil, gatewayCfg, zap.NewNop())

	assert.True(t, gw.TextEnabled())
	assert.Equal(t, "[]", gw.GenerateText(context.Background(), prompt, 100))
	ai.AssertExpectations(t)
}

func TestGateway_GenerateTextFailureIsEmpty(t *testing.T) {
	ai := new(mocks.MockAIClient)
	providerErr := &service.ProviderError{Provider: "openai", StatusCode: 429, Body: "rate limited"}
	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("", service.UsageInfo{}, errors.Join(service.ErrAIGenerationFailed, providerErr)).Once()
	gw := service.NewProviderGateway(ai, nil, nil, nil, gatewayCfg, zap.NewNop())

	assert.Empty(t, gw.GenerateText(context.Background(), prompt, 100))
}

func TestGateway_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ai := new(mocks.MockAIClient)
	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("", service.UsageInfo{}, service.ErrAIGenerationFailed)
	gw := service.NewProviderGateway(ai, nil, nil, nil, gatewayCfg, zap.NewNop())

	for range 4 {
		assert.Empty(t, gw.GenerateText(context.Background(), prompt, 100))
	}
	ai.AssertNumberOfCalls(t, "GenerateText", 2)
}

func TestGateway_CancelledCallerSkipsProvider(t *testing.T) {
	ai := new(mocks.MockAIClient)
	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("[]", service.UsageInfo{}, nil).Once()
	gw := service.NewProviderGateway(ai, nil, nil, nil, gatewayCfg, zap.NewNop())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for range 3 {
		assert.Empty(t, gw.GenerateText(cancelled, prompt, 100))
	}

	assert.Equal(t, "[]", gw.GenerateText(context.Background(), prompt, 100))
	ai.AssertNumberOfCalls(t, "GenerateText", 1)
}

func TestGateway_CallerCancellationDoesNotOpenBreaker(t *testing.T) {
	var cancelCurrent context.CancelFunc
	ai := new(mocks.MockAIClient)
	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancelCurrent() }).
		Return("", service.UsageInfo{}, context.Canceled).Times(3)
	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("[]", service.UsageInfo{}, nil).Once()
	gw := service.NewProviderGateway(ai, nil, nil, nil, gatewayCfg, zap.NewNop())

	for range 3 {
		ctx, cancel := context.WithCancel(context.Background())
		cancelCurrent = cancel
		assert.Empty(t, gw.GenerateText(ctx, prompt, 100))
		cancel()
	}

	assert.Equal(t, "[]", gw.GenerateText(context.Background(), prompt, 100))
	ai.AssertNumberOfCalls(t, "GenerateText", 4)
}

func TestGateway_OwnTimeoutCountsAsFailure(t *testing.T) {
	ai := new(mocks.MockAIClient)
	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return("", service.UsageInfo{}, context.DeadlineExceeded)
	cfg := gatewayCfg
	cfg.TextTimeout = 10 * time.Millisecond
	gw := service.NewProviderGateway(ai, nil, nil, nil, cfg, zap.NewNop())

	for range 3 {
		assert.Empty(t, gw.GenerateText(context.Background(), prompt, 100))
	}
	ai.AssertNumberOfCalls(t, "GenerateText", 2)
}

func TestGateway_SynthesizeDiscoversVoiceOnce(t *testing.T) {
	ctx := context.Background()
	speech := new(mocks.MockSpeechClient)
	speech.On("ListVoices", mock.Anything).
		Return([]service.Voice{{ID: "", Name: "broken"}, {ID: "v1", Name: "Rachel"}, {ID: "v2", Name: "Adam"}}, nil).Once()
	speech.On("Synthesize", mock.Anything, mock.Anything, "v1").Return([]byte("mp3"), nil).Twice()
	audio := new(mocks.MockAudioStore)
	audio.On("Save", mock.Anything, []byte("mp3"), "mp3").Return("http://host/audio/a.mp3", nil).Twice()
	voices := service.NewVoiceSelection("")
	gw := service.NewProviderGateway(nil, speech, audio, voices, gatewayCfg, zap.NewNop())

	first := gw.SynthesizeSpeech(ctx, "once upon a time")
	second := gw.SynthesizeSpeech(ctx, "the end")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, "http://host/audio/a.mp3", *first)
	assert.Equal(t, "v1", voices.Get())
	speech.AssertExpectations(t)
	audio.AssertExpectations(t)
}

func TestGateway_SynthesizeUsesConfiguredVoice(t *testing.T) {
	speech := new(mocks.MockSpeechClient)
	speech.On("Synthesize", mock.Anything, "text", "configured").Return([]byte("mp3"), nil).Once()
	audio := new(mocks.MockAudioStore)
	audio.On("Save", mock.Anything, mock.Anything, "mp3").Return("u", nil).Once()
	gw := service.NewProviderGateway(nil, speech, audio, service.NewVoiceSelection("configured"), gatewayCfg, zap.NewNop())

	assert.NotNil(t, gw.SynthesizeSpeech(context.Background(), "text"))
	speech.AssertNotCalled(t, "ListVoices", mock.Anything)
}

func TestGateway_SynthesizeFailures(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		speech := new(mocks.MockSpeechClient)
		speech.On("Synthesize", mock.Anything, mock.Anything, "v").Return(nil, service.ErrSpeechFailed).Once()
		audio := new(mocks.MockAudioStore)
		gw := service.NewProviderGateway(nil, speech, audio, service.NewVoiceSelection("v"), gatewayCfg, zap.NewNop())

		assert.Nil(t, gw.SynthesizeSpeech(context.Background(), "text"))
		audio.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no voices", func(t *testing.T) {
		speech := new(mocks.MockSpeechClient)
		speech.On("ListVoices", mock.Anything).Return([]service.Voice{}, nil).Once()
		gw := service.NewProviderGateway(nil, speech, new(mocks.MockAudioStore), nil, gatewayCfg, zap.NewNop())

		assert.Nil(t, gw.SynthesizeSpeech(context.Background(), "text"))
		speech.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store error", func(t *testing.T) {
		speech := new(mocks.MockSpeechClient)
		speech.On("Synthesize", mock.Anything, mock.Anything, "v").Return([]byte("mp3"), nil).Once()
		audio := new(mocks.MockAudioStore)
		audio.On("Save", mock.Anything, mock.Anything, "mp3").Return("", errors.New("disk full")).Once()
		gw := service.NewProviderGateway(nil, speech, audio, service.NewVoiceSelection("v"), gatewayCfg, zap.NewNop())

		assert.Nil(t, gw.SynthesizeSpeech(context.Background(), "text"))
	})
}

func TestVoiceSelection(t *testing.T) {
	v := service.NewVoiceSelection("")
	assert.Empty(t, v.Get())
	assert.Equal(t, "a", v.SetOnce("a"))
	assert.Equal(t, "a", v.SetOnce("b"))
	v.Reset("c")
	assert.Equal(t, "c", v.Get())
	v.Reset("")
	assert.Equal(t, "d", v.SetOnce("d"))
}
