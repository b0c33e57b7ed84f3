package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPClient is the part of the Cloud Text-to-Speech client the provider uses.
type GCPClient interface {
	ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest, opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error)
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// GCPProvider implements the Provider interface for Google Cloud Text-to-Speech
type GCPProvider struct {
	client   GCPClient
	voice    string
	language string
}

// GCPProviderOption is a functional option for configuring GCPProvider
type GCPProviderOption func(*GCPProvider)

// WithGCPVoice sets the default voice
func WithGCPVoice(voice string) GCPProviderOption {
	return func(p *GCPProvider) {
		p.voice = voice
	}
}

// WithGCPLanguage sets the default language code
func WithGCPLanguage(language string) GCPProviderOption {
	return func(p *GCPProvider) {
		p.language = language
	}
}

// NewGCPProvider creates a Google Cloud TTS provider. Authentication uses
// Application Default Credentials.
func NewGCPProvider(ctx context.Context, opts ...GCPProviderOption) (*GCPProvider, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP TTS client: %w", err)
	}
	return newGCPProvider(client, opts...), nil
}

func newGCPProvider(client GCPClient, opts ...GCPProviderOption) *GCPProvider {
	p := &GCPProvider{
		client:   client,
		voice:    "en-US-Neural2-D",
		language: "en-US",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *GCPProvider) Name() string {
	return "gcp"
}

// ListVoices returns the voices for the configured language.
func (p *GCPProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := p.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: p.language})
	if err != nil {
		return nil, fmt.Errorf("failed to list GCP voices: %w", classifyGCPError(err))
	}

	var voices []Voice
	for _, v := range resp.Voices {
		voices = append(voices, Voice{
			ID:          v.Name,
			Name:        v.Name,
			Language:    p.language,
			Gender:      strings.ToLower(v.SsmlGender.String()),
			Description: fmt.Sprintf("%s voice", detectEngineType(v.Name)),
		})
	}
	log.Debug().Int("count", len(voices)).Msg("Listed GCP TTS voices")
	return voices, nil
}

func detectEngineType(voiceName string) string {
	name := strings.ToLower(voiceName)
	switch {
	case strings.Contains(name, "wavenet"):
		return "WaveNet"
	case strings.Contains(name, "neural2"):
		return "Neural2"
	case strings.Contains(name, "studio"):
		return "Studio"
	case strings.Contains(name, "news"):
		return "News"
	case strings.Contains(name, "casual"):
		return "Casual"
	default:
		return "Standard"
	}
}

// Synthesize generates MP3 audio using Google Cloud TTS.
func (p *GCPProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	voice := p.voice
	if options.Voice != "" {
		voice = options.Voice
	}
	language := p.language
	if options.Language != "" {
		language = options.Language
	} else if parts := strings.Split(voice, "-"); len(parts) >= 2 {
		// en-US-Neural2-D -> en-US
		language = parts[0] + "-" + parts[1]
	}

	speed := options.Speed
	if speed <= 0 {
		speed = 1.0
	}
	speed = min(max(speed, 0.25), 4.0)

	resp, err := p.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: language,
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  speed,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", classifyGCPError(err))
	}

	log.Debug().Int("audio_bytes", len(resp.AudioContent)).Msg("GCP TTS synthesis successful")
	return io.NopCloser(bytes.NewReader(resp.AudioContent)), nil
}

// IsAvailable checks credentials by listing voices.
func (p *GCPProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: p.language})
	return err == nil
}

// Close closes the GCP client
func (p *GCPProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// classifyGCPError marks credential failures as ErrNotConfigured.
func classifyGCPError(err error) error {
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	return err
}

// GCPProviderFromConfig creates a GCPProvider from configuration map
func GCPProviderFromConfig(ctx context.Context, config map[string]interface{}) (*GCPProvider, error) {
	var opts []GCPProviderOption
	if voice, ok := config["voice"].(string); ok && voice != "" {
		opts = append(opts, WithGCPVoice(voice))
	}
	if language, ok := config["language"].(string); ok && language != "" {
		opts = append(opts, WithGCPLanguage(language))
	}
	return NewGCPProvider(ctx, opts...)
}
