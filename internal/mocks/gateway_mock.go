package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Panchalparth471/app-backend/internal/service"
)

// MockProviderGateway is a mock type for the ProviderGateway type
type MockProviderGateway struct {
	mock.Mock
}

// TextEnabled provides a mock function with given fields:
func (_m *MockProviderGateway) TextEnabled() bool {
	return _m.Called().Bool(0)
}

// SpeechEnabled provides a mock function with given fields:
func (_m *MockProviderGateway) SpeechEnabled() bool {
	return _m.Called().Bool(0)
}

// GenerateText provides a mock function with given fields: ctx, messages, maxTokens
func (_m *MockProviderGateway) GenerateText(ctx context.Context, messages []service.ChatMessage, maxTokens int) string {
	ret := _m.Called(ctx, messages, maxTokens)

	if rf, ok := ret.Get(0).(func(context.Context, []service.ChatMessage, int) string); ok {
		return rf(ctx, messages, maxTokens)
	}
	return ret.String(0)
}

// SynthesizeSpeech provides a mock function with given fields: ctx, text
func (_m *MockProviderGateway) SynthesizeSpeech(ctx context.Context, text string) *string {
	ret := _m.Called(ctx, text)

	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(*string)
}

var _ service.ProviderGateway = (*MockProviderGateway)(nil)

// MockAIClient is a mock type for the AIClient type
type MockAIClient struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, messages, params
func (_m *MockAIClient) GenerateText(ctx context.Context, messages []service.ChatMessage, params service.GenerationParams) (string, service.UsageInfo, error) {
	ret := _m.Called(ctx, messages, params)

	var r1 service.UsageInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(service.UsageInfo)
	}
	return ret.String(0), r1, ret.Error(2)
}

// Model provides a mock function with given fields:
func (_m *MockAIClient) Model() string {
	return _m.Called().String(0)
}

var _ service.AIClient = (*MockAIClient)(nil)

// MockSpeechClient is a mock type for the SpeechClient type
type MockSpeechClient struct {
	mock.Mock
}

// ListVoices provides a mock function with given fields: ctx
func (_m *MockSpeechClient) ListVoices(ctx context.Context) ([]service.Voice, error) {
	ret := _m.Called(ctx)

	var r0 []service.Voice
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]service.Voice)
	}
	return r0, ret.Error(1)
}

// Synthesize provides a mock function with given fields: ctx, text, voiceID
func (_m *MockSpeechClient) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	ret := _m.Called(ctx, text, voiceID)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0, ret.Error(1)
}

var _ service.SpeechClient = (*MockSpeechClient)(nil)

// MockAudioStore is a mock type for the AudioStore type
type MockAudioStore struct {
	mock.Mock
}

// Save provides a mock function with given fields: ctx, data, ext
func (_m *MockAudioStore) Save(ctx context.Context, data []byte, ext string) (string, error) {
	ret := _m.Called(ctx, data, ext)
	return ret.String(0), ret.Error(1)
}

var _ service.AudioStore = (*MockAudioStore)(nil)
