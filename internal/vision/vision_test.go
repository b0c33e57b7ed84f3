package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/daikw/colorcommentary/internal/personality"
)

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	reply    string
	err      error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

var jpeg = []byte{0xff, 0xd8, 0xff, 0xd9}

func TestUserPrompt(t *testing.T) {
	assert.Equal(t, "Describe what you see in this image.", UserPrompt("", nil))

	got := UserPrompt("What a play", []string{"Al", "Bo"})
	assert.True(t, strings.HasPrefix(got, `Your previous commentary was: "What a play". Say something DIFFERENT now.`))
	assert.Contains(t, got, "left to right, are: Al, Bo.")
	assert.True(t, strings.HasSuffix(got, "Describe what you see in this image."))
}

func TestSystemPrompt(t *testing.T) {
	p := personality.NewRegistry().Get("jets")
	got := SystemPrompt(p)

	assert.True(t, strings.HasPrefix(got, "You are a long-suffering New York Jets fan"))
	assert.True(t, strings.HasSuffix(got, ResponseFormat))
}

func TestGeminiAnalyzer_Analyze(t *testing.T) {
	t.Run("sends frame with personality prompt", func(t *testing.T) {
		gen := &fakeGenerator{reply: ` {"commentary":"Nice"} `}
		a := NewGeminiAnalyzerWithGenerator(gen, personality.NewRegistry(), WithModel("gemini-test"))

		raw, err := a.Analyze(context.Background(), Request{
			Image:              base64.StdEncoding.EncodeToString(jpeg),
			PreviousCommentary: "Old line",
			Personality:        "eagles",
			People:             []string{"Al"},
		})

		require.NoError(t, err)
		assert.Equal(t, `{"commentary":"Nice"}`, string(raw))
		assert.Equal(t, "gemini-test", gen.model)

		require.Len(t, gen.contents, 1)
		parts := gen.contents[0].Parts
		require.Len(t, parts, 2)
		assert.Contains(t, parts[0].Text, `"Old line"`)
		require.NotNil(t, parts[1].InlineData)
		assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
		assert.Equal(t, jpeg, parts[1].InlineData.Data)

		assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
		assert.Equal(t, int32(DefaultMaxOutputTokens), gen.config.MaxOutputTokens)
		require.NotNil(t, gen.config.Temperature)
		assert.InDelta(t, 0.9, *gen.config.Temperature, 0.0001)
		assert.Contains(t, gen.config.SystemInstruction.Parts[0].Text, "Philadelphia Eagles")
	})

	t.Run("accepts data URLs", func(t *testing.T) {
		gen := &fakeGenerator{reply: `{}`}
		a := NewGeminiAnalyzerWithGenerator(gen, nil)

		_, err := a.Analyze(context.Background(), Request{
			Image: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg),
		})

		require.NoError(t, err)
		assert.Equal(t, jpeg, gen.contents[0].Parts[1].InlineData.Data)
	})

	t.Run("rejects bad images", func(t *testing.T) {
		a := NewGeminiAnalyzerWithGenerator(&fakeGenerator{}, nil)

		_, err := a.Analyze(context.Background(), Request{Image: ""})
		assert.ErrorIs(t, err, ErrInvalidImage)

		_, err = a.Analyze(context.Background(), Request{Image: "***"})
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("wraps model errors", func(t *testing.T) {
		a := NewGeminiAnalyzerWithGenerator(&fakeGenerator{err: errors.New("quota")}, nil)

		_, err := a.Analyze(context.Background(), Request{Image: base64.StdEncoding.EncodeToString(jpeg)})
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("empty reply", func(t *testing.T) {
		a := NewGeminiAnalyzerWithGenerator(&fakeGenerator{reply: "  "}, nil)

		_, err := a.Analyze(context.Background(), Request{Image: base64.StdEncoding.EncodeToString(jpeg)})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestNewGeminiAnalyzer_MissingKey(t *testing.T) {
	_, err := NewGeminiAnalyzer(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_Analyze(t *testing.T) {
	t.Run("posts request and returns body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, AnalyzePath, r.URL.Path)

			body, _ := io.ReadAll(r.Body)
			var req map[string]any
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, "abc", req["image"])
			assert.Equal(t, "jets", req["personality"])
			assert.Equal(t, []any{}, req["people"])

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"commentary":"ok"}`))
		}))
		defer server.Close()

		raw, err := NewClient(server.URL+"/").Analyze(context.Background(), Request{Image: "abc", Personality: "jets"})

		require.NoError(t, err)
		assert.JSONEq(t, `{"commentary":"ok"}`, string(raw))
	})

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"service unavailable", http.StatusServiceUnavailable, `{"error":"GEMINI_API_KEY not set"}`, ErrNotConfigured},
		{"upstream failure", http.StatusBadGateway, `{"error":"Gemini API error"}`, ErrUpstream},
		{"not json", http.StatusOK, `<html>`, ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Analyze(context.Background(), Request{Image: "abc"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("cancelled request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewClient("http://127.0.0.1:1").Analyze(ctx, Request{Image: "abc"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
