package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/daikw/colorcommentary/internal/config"
	"github.com/daikw/colorcommentary/internal/personality"
	"github.com/daikw/colorcommentary/internal/vision"
	"github.com/daikw/colorcommentary/internal/voice"
	"github.com/daikw/colorcommentary/internal/voice/provider"
)

// personalityManager returns the manager for the configured directory.
func personalityManager(cfg *config.Config) (*personality.Manager, error) {
	dir := cfg.Broadcast.PersonalitiesDir
	if dir == "" {
		var err error
		if dir, err = personality.DefaultDir(); err != nil {
			return nil, err
		}
	}
	return personality.NewManager(dir), nil
}

// loadRegistry returns the built-ins plus any custom personality files.
func loadRegistry(cfg *config.Config) (*personality.Registry, error) {
	manager, err := personalityManager(cfg)
	if err != nil {
		return nil, err
	}
	return manager.Registry()
}

// newAnalyzer calls the remote endpoint when one is set, the model
// otherwise. It returns vision.ErrNotConfigured when the key is missing.
func newAnalyzer(ctx context.Context, cfg *config.Config, registry *personality.Registry) (vision.Analyzer, error) {
	if cfg.Vision.Endpoint != "" {
		log.Debug().Str("endpoint", cfg.Vision.Endpoint).Msg("Using remote analysis endpoint")
		return vision.NewClient(cfg.Vision.Endpoint), nil
	}
	analyzer, err := vision.NewGeminiAnalyzer(ctx, cfg.Vision.Key(), registry,
		vision.WithModel(cfg.Vision.Model),
		vision.WithTemperature(float32(cfg.Vision.Temperature)),
		vision.WithMaxOutputTokens(int32(cfg.Vision.MaxOutputTokens)),
	)
	if err != nil {
		return nil, err
	}
	return analyzer, nil
}

// newProvider creates the configured TTS provider.
func newProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	p, err := provider.NewFactory().CreateProvider(ctx, cfg.Speech.Provider, cfg.Speech.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.Speech.Provider, err)
	}
	return p, nil
}

// newSynthesizer returns the remote speech endpoint or a provider-backed
// synthesizer. Missing credentials yield provider.ErrNotConfigured.
func newSynthesizer(ctx context.Context, cfg *config.Config, registry *personality.Registry) (voice.Synthesizer, error) {
	if cfg.Speech.Endpoint != "" {
		log.Debug().Str("endpoint", cfg.Speech.Endpoint).Msg("Using remote speech endpoint")
		return voice.NewClient(cfg.Speech.Endpoint), nil
	}
	p, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return voice.NewProviderSynthesizer(p, registry, provider.SynthesizeOptions{
		Voice:    cfg.Speech.Voice,
		Language: cfg.Speech.Language,
	}), nil
}

// optional turns a not-configured error into a warning.
func optional(err error, what string) error {
	if errors.Is(err, vision.ErrNotConfigured) || errors.Is(err, provider.ErrNotConfigured) {
		log.Warn().Err(err).Msgf("%s unavailable", what)
		return nil
	}
	return err
}
