// Package provider implements the text-to-speech backends behind the
// speech endpoint.
package provider

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrNotConfigured is returned when a provider lacks credentials.
	ErrNotConfigured = errors.New("speech provider not configured")
)

// Provider defines the interface for TTS providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// ListVoices returns available voices for this provider
	ListVoices(ctx context.Context) ([]Voice, error)

	// Synthesize generates audio from text and returns an audio stream
	Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error)

	// IsAvailable checks if the provider is available (can be used)
	IsAvailable(ctx context.Context) bool
}

// Voice represents a voice option
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Gender      string `json:"gender,omitempty"`
	Description string `json:"description,omitempty"`
}

// SynthesizeOptions contains options for text synthesis. Zero values mean
// the provider default.
type SynthesizeOptions struct {
	Voice    string  `json:"voice"`
	Speed    float64 `json:"speed,omitempty"`
	Format   string  `json:"format,omitempty"`
	Model    string  `json:"model,omitempty"`
	Language string  `json:"language,omitempty"`
	Engine   string  `json:"engine,omitempty"`
}
