package provider

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PollyClient interface defines the methods we need from the Polly client
type PollyClient interface {
	DescribeVoices(ctx context.Context, params *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error)
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollyProvider implements the Provider interface for Amazon Polly
type PollyProvider struct {
	client PollyClient
	region string
}

// NewPollyProvider creates a Polly provider using the default AWS credential chain.
func NewPollyProvider(ctx context.Context, region string) (*PollyProvider, error) {
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &PollyProvider{
		client: polly.NewFromConfig(cfg),
		region: region,
	}, nil
}

// Name returns the provider name
func (p *PollyProvider) Name() string {
	return "polly"
}

// ListVoices returns the English Polly voices.
func (p *PollyProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	result, err := p.client.DescribeVoices(ctx, &polly.DescribeVoicesInput{
		LanguageCode: types.LanguageCodeEnUs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list Polly voices: %w", err)
	}

	title := cases.Title(language.English)
	voices := make([]Voice, 0, len(result.Voices))
	for _, v := range result.Voices {
		voices = append(voices, Voice{
			ID:       string(v.Id),
			Name:     aws.ToString(v.Name),
			Language: string(v.LanguageCode),
			Gender:   strings.ToLower(string(v.Gender)),
			Description: fmt.Sprintf("%s voice, %s engine supported",
				title.String(string(v.Gender)), formatSupportedEngines(v.SupportedEngines)),
		})
	}
	return voices, nil
}

// Synthesize generates MP3 audio using Amazon Polly.
func (p *PollyProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	voiceID := options.Voice
	if voiceID == "" {
		voiceID = "Matthew"
	}

	var format types.OutputFormat
	switch strings.ToLower(options.Format) {
	case "", "mp3":
		format = types.OutputFormatMp3
	case "ogg":
		format = types.OutputFormatOggVorbis
	case "pcm":
		format = types.OutputFormatPcm
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", options.Format)
	}

	engine := types.EngineNeural
	switch strings.ToLower(options.Engine) {
	case "", "neural":
	case "standard":
		engine = types.EngineStandard
	case "generative":
		engine = types.EngineGenerative
	case "long-form":
		engine = types.EngineLongForm
	default:
		log.Warn().Str("engine", options.Engine).Msg("Unknown engine, using neural")
	}

	input := &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		TextType:     types.TextTypeText,
		VoiceId:      types.VoiceId(voiceID),
		OutputFormat: format,
		Engine:       engine,
	}

	log.Debug().
		Str("voice_id", voiceID).
		Str("engine", string(engine)).
		Msg("Making Polly synthesis request")

	result, err := p.client.SynthesizeSpeech(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	return result.AudioStream, nil
}

// IsAvailable checks credentials by describing voices.
func (p *PollyProvider) IsAvailable(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.client.DescribeVoices(checkCtx, &polly.DescribeVoicesInput{})
	return err == nil
}

// PollyProviderFromConfig creates a Polly provider from configuration
func PollyProviderFromConfig(ctx context.Context, config map[string]interface{}) (*PollyProvider, error) {
	region, _ := config["region"].(string)
	return NewPollyProvider(ctx, region)
}

func formatSupportedEngines(engines []types.Engine) string {
	if len(engines) == 0 {
		return "standard"
	}
	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = string(e)
	}
	return strings.Join(names, "/")
}
