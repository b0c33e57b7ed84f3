package provider

import (
	"context"
	"io"
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MockGCPClient is a mock for the GCP TTS client
type MockGCPClient struct {
	mock.Mock
}

func (m *MockGCPClient) ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest, opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*texttospeechpb.ListVoicesResponse), args.Error(1)
}

func (m *MockGCPClient) SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*texttospeechpb.SynthesizeSpeechResponse), args.Error(1)
}

func (m *MockGCPClient) Close() error {
	return nil
}

func TestGCPProvider_Synthesize(t *testing.T) {
	client := new(MockGCPClient)
	client.On("SynthesizeSpeech", mock.Anything, mock.MatchedBy(func(req *texttospeechpb.SynthesizeSpeechRequest) bool {
		return req.GetInput().GetText() == "Goal!" &&
			req.GetVoice().GetName() == "en-GB-Neural2-B" &&
			req.GetVoice().GetLanguageCode() == "en-GB" &&
			req.GetAudioConfig().GetAudioEncoding() == texttospeechpb.AudioEncoding_MP3 &&
			req.GetAudioConfig().GetSpeakingRate() == 4.0
	})).Return(&texttospeechpb.SynthesizeSpeechResponse{AudioContent: []byte("mp3")}, nil)

	p := newGCPProvider(client)
	audio, err := p.Synthesize(context.Background(), "Goal!", SynthesizeOptions{Voice: "en-GB-Neural2-B", Speed: 10})
	require.NoError(t, err)

	data, _ := io.ReadAll(audio)
	assert.Equal(t, "mp3", string(data))
	client.AssertExpectations(t)
}

func TestGCPProvider_CredentialErrors(t *testing.T) {
	client := new(MockGCPClient)
	client.On("SynthesizeSpeech", mock.Anything, mock.Anything).
		Return(nil, status.Error(codes.PermissionDenied, "no access"))
	client.On("ListVoices", mock.Anything, mock.Anything).
		Return(nil, status.Error(codes.Unavailable, "try later"))

	p := newGCPProvider(client)

	_, err := p.Synthesize(context.Background(), "x", SynthesizeOptions{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = p.ListVoices(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
	assert.False(t, p.IsAvailable(context.Background()))
}

func TestGCPProvider_ListVoices(t *testing.T) {
	client := new(MockGCPClient)
	client.On("ListVoices", mock.Anything, mock.Anything).Return(&texttospeechpb.ListVoicesResponse{
		Voices: []*texttospeechpb.Voice{
			{Name: "en-US-Wavenet-A", SsmlGender: texttospeechpb.SsmlVoiceGender_MALE},
		},
	}, nil)

	voices, err := newGCPProvider(client).ListVoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Voice{{
		ID: "en-US-Wavenet-A", Name: "en-US-Wavenet-A", Language: "en-US", Gender: "male", Description: "WaveNet voice",
	}}, voices)
}

func TestDetectEngineType(t *testing.T) {
	tests := map[string]string{
		"en-US-Wavenet-A": "WaveNet",
		"en-US-Neural2-D": "Neural2",
		"en-US-Studio-O":  "Studio",
		"en-US-News-K":    "News",
		"en-US-Standard":  "Standard",
	}
	for name, want := range tests {
		assert.Equal(t, want, detectEngineType(name), name)
	}
}
