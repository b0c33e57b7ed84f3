package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/daikw/colorcommentary/internal/personality"
	"github.com/daikw/colorcommentary/internal/voice/provider"
)

// TTSPath is the speech route served by the proxy.
const TTSPath = "/api/tts"

// ErrNoContent means there is nothing to play. It is not a failure.
var ErrNoContent = errors.New("no speech content")

// Synthesizer turns commentary into an audio stream for a personality.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, personality string) (io.ReadCloser, error)
}

// ProviderSynthesizer picks the voice for a personality and calls a
// provider directly.
type ProviderSynthesizer struct {
	provider provider.Provider
	registry *personality.Registry
	options  provider.SynthesizeOptions
}

// NewProviderSynthesizer wraps p. options.Voice is used for providers other
// than ElevenLabs, whose voices come from the personality.
func NewProviderSynthesizer(p provider.Provider, registry *personality.Registry, options provider.SynthesizeOptions) *ProviderSynthesizer {
	if registry == nil {
		registry = personality.NewRegistry()
	}
	return &ProviderSynthesizer{provider: p, registry: registry, options: options}
}

// Synthesize returns ErrNoContent for blank text or a personality without a voice.
func (s *ProviderSynthesizer) Synthesize(ctx context.Context, text, id string) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoContent
	}
	options := s.options
	if s.provider.Name() == "elevenlabs" {
		options.Voice = s.registry.Get(id).Voice
		if options.Voice == "" {
			return nil, ErrNoContent
		}
	}
	return s.provider.Synthesize(ctx, text, options)
}

// Client calls a remote speech endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the proxy at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Synthesize posts the text; 204 No Content yields ErrNoContent.
func (c *Client) Synthesize(ctx context.Context, text, personality string) (io.ReadCloser, error) {
	jsonData, err := json.Marshal(map[string]string{"text": text, "personality": personality})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+TTSPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		resp.Body.Close()
		log.Debug().Str("reason", resp.Header.Get(UnavailableHeader)).Msg("Speech endpoint returned no content")
		return nil, ErrNoContent
	case resp.StatusCode != http.StatusOK:
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("speech endpoint error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

// UnavailableHeader explains an empty speech response.
const UnavailableHeader = "X-Speech-Unavailable"
