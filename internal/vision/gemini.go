package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/daikw/colorcommentary/internal/personality"
)

const (
	DefaultModel           = "gemini-3-flash-preview"
	DefaultTemperature     = 0.9
	DefaultMaxOutputTokens = 2000
)

// ContentGenerator is the part of the genai client the analyzer uses.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer asks a Gemini model to commentate a frame.
type GeminiAnalyzer struct {
	models      ContentGenerator
	registry    *personality.Registry
	model       string
	temperature float32
	maxTokens   int32
}

// GeminiOption configures a GeminiAnalyzer.
type GeminiOption func(*GeminiAnalyzer)

// WithModel overrides the model name.
func WithModel(model string) GeminiOption {
	return func(a *GeminiAnalyzer) {
		if model != "" {
			a.model = model
		}
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float32) GeminiOption {
	return func(a *GeminiAnalyzer) {
		if t > 0 {
			a.temperature = t
		}
	}
}

// WithMaxOutputTokens overrides the output token limit.
func WithMaxOutputTokens(n int32) GeminiOption {
	return func(a *GeminiAnalyzer) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// NewGeminiAnalyzer creates an analyzer backed by the Gemini API.
// An empty apiKey yields ErrNotConfigured.
func NewGeminiAnalyzer(ctx context.Context, apiKey string, registry *personality.Registry, opts ...GeminiOption) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return NewGeminiAnalyzerWithGenerator(client.Models, registry, opts...), nil
}

// NewGeminiAnalyzerWithGenerator creates an analyzer around an existing generator.
func NewGeminiAnalyzerWithGenerator(models ContentGenerator, registry *personality.Registry, opts ...GeminiOption) *GeminiAnalyzer {
	if registry == nil {
		registry = personality.NewRegistry()
	}
	a := &GeminiAnalyzer{
		models:      models,
		registry:    registry,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxOutputTokens,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze sends the frame and returns the model's raw JSON text.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, req Request) ([]byte, error) {
	image, err := decodeImage(req.Image)
	if err != nil {
		return nil, err
	}

	p := a.registry.Get(req.Personality)
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(UserPrompt(req.PreviousCommentary, req.People)),
			genai.NewPartFromBytes(image, "image/jpeg"),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(p), genai.RoleUser),
		Temperature:       genai.Ptr(a.temperature),
		MaxOutputTokens:   a.maxTokens,
		ResponseMIMEType:  "application/json",
	}

	callID := uuid.NewString()
	log.Debug().
		Str("call_id", callID).
		Str("model", a.model).
		Str("personality", p.ID).
		Int("image_bytes", len(image)).
		Int("people", len(req.People)).
		Msg("Making Gemini analyze request")

	resp, err := a.models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}

	log.Debug().
		Str("call_id", callID).
		Str("raw", truncate(text, 300)).
		Msg("Gemini analyze response")

	return []byte(text), nil
}

func decodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	// Browsers send data URLs; strip the prefix.
	if _, data, ok := strings.Cut(s, ";base64,"); ok && strings.HasPrefix(s, "data:") {
		s = data
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	image, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return image, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
