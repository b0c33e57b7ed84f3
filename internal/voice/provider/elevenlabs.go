package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	ElevenLabsBaseURL        = "https://api.elevenlabs.io/v1"
	ElevenLabsTTSEndpoint    = "/text-to-speech"
	ElevenLabsVoicesEndpoint = "/voices"

	ElevenLabsDefaultModel = "eleven_flash_v2_5"
	ElevenLabsDefaultVoice = "pNInz6obpgDQGcFmaJgB"
)

// ElevenLabsProvider streams speech from the ElevenLabs API. Commentary is
// short and latency matters, so it uses the streaming endpoint with the
// low-latency flash model.
type ElevenLabsProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	settings   VoiceSettings
}

// VoiceSettings tunes the ElevenLabs voice.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	Speed           float64 `json:"speed,omitempty"`
}

// DefaultVoiceSettings suit excitable sports commentary.
var DefaultVoiceSettings = VoiceSettings{
	Stability:       0.5,
	SimilarityBoost: 0.75,
	Style:           0.5,
	Speed:           1.1,
}

// NewElevenLabsProvider creates a new ElevenLabs TTS provider
func NewElevenLabsProvider(apiKey string) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		apiKey:  apiKey,
		baseURL: ElevenLabsBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		settings: DefaultVoiceSettings,
	}
}

// Name returns the provider name
func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

type elevenLabsVoice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Labels      map[string]string `json:"labels"`
	Description string            `json:"description"`
}

// ListVoices returns the voices on the account.
func (p *ElevenLabsProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+ElevenLabsVoicesEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create voices request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make voices request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ElevenLabs voices API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var voicesResp struct {
		Voices []elevenLabsVoice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&voicesResp); err != nil {
		return nil, fmt.Errorf("failed to decode voices response: %w", err)
	}

	voices := make([]Voice, 0, len(voicesResp.Voices))
	for _, v := range voicesResp.Voices {
		language := v.Labels["language"]
		if language == "" {
			language = "multilingual"
		}
		description := v.Description
		if description == "" {
			description = v.Category
		}
		voices = append(voices, Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Language:    language,
			Gender:      v.Labels["gender"],
			Description: description,
		})
	}

	log.Debug().Int("voice_count", len(voices)).Msg("ElevenLabs voices retrieved successfully")
	return voices, nil
}

type elevenLabsTTSRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize streams MP3 audio for text.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if p.apiKey == "" {
		return nil, ErrNotConfigured
	}

	voice := options.Voice
	if voice == "" {
		voice = ElevenLabsDefaultVoice
	}
	model := options.Model
	if model == "" {
		model = ElevenLabsDefaultModel
	}
	settings := p.settings
	if options.Speed > 0 {
		settings.Speed = options.Speed
	}

	jsonData, err := json.Marshal(elevenLabsTTSRequest{Text: text, ModelID: model, VoiceSettings: settings})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	query := url.Values{}
	query.Set("output_format", "mp3_44100_128")
	query.Set("optimize_streaming_latency", "3")
	endpoint := fmt.Sprintf("%s%s/%s/stream?%s", p.baseURL, ElevenLabsTTSEndpoint, url.PathEscape(voice), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", p.apiKey)

	log.Debug().
		Str("voice", voice).
		Str("model", model).
		Int("text_length", len(text)).
		Msg("Making ElevenLabs TTS request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ElevenLabs API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return resp.Body, nil
}

// IsAvailable reports whether an API key is set.
func (p *ElevenLabsProvider) IsAvailable(ctx context.Context) bool {
	return p.apiKey != ""
}

// ElevenLabsProviderFromConfig creates an ElevenLabs provider from configuration
func ElevenLabsProviderFromConfig(config map[string]interface{}) (*ElevenLabsProvider, error) {
	apiKey, _ := config["api_key"].(string)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api_key is required for ElevenLabs provider", ErrNotConfigured)
	}

	provider := NewElevenLabsProvider(apiKey)
	if baseURL, ok := config["base_url"].(string); ok && baseURL != "" {
		provider.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	return provider, nil
}
