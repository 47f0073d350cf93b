package service

import "sync"

// VoiceSelection holds the synthesis voice used by this process.
// A configured voice is fixed at construction. Otherwise the first voice
// discovered through the provider is stored with SetOnce and kept until
// Reset is called during reconfiguration.
type VoiceSelection struct {
	mu sync.RWMutex
	id string
}

// NewVoiceSelection starts with the configured voice, which may be empty.
func NewVoiceSelection(configured string) *VoiceSelection {
	return &VoiceSelection{id: configured}
}

// Get returns the current voice or "".
func (v *VoiceSelection) Get() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.id
}

// SetOnce stores id unless a voice is already chosen and returns the voice in effect.
func (v *VoiceSelection) SetOnce(id string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.id == "" {
		v.id = id
	}
	return v.id
}

// Reset replaces the voice unconditionally. An empty id re-enables discovery.
func (v *VoiceSelection) Reset(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.id = id
}
