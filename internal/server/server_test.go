package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daikw/colorcommentary/internal/vision"
	"github.com/daikw/colorcommentary/internal/voice"
	"github.com/daikw/colorcommentary/internal/voice/provider"
)

type fakeAnalyzer struct {
	reply []byte
	err   error
	got   vision.Request
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req vision.Request) ([]byte, error) {
	f.got = req
	return f.reply, f.err
}

type fakeSynth struct {
	audio string
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, personality string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.audio)), nil
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyze(t *testing.T) {
	analyzer := &fakeAnalyzer{reply: []byte(`{"commentary":"He's sweating!","engagement":"88.6","sound":"gasp","detectedNames":["Sam",3],"peopleCount":1}`)}
	h := New(nil, WithAnalyzer(analyzer)).Handler()

	rec := post(t, h, vision.AnalyzePath, `{"image":"aGVsbG8=","previousCommentary":"Earlier","personality":"jets","people":["Sam"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	assert.JSONEq(t, `{
		"commentary": "He's sweating!",
		"engagement": 89,
		"skepticism": 50,
		"momentum": "steady",
		"event": null,
		"sound": "gasp",
		"detectedNames": ["Sam"],
		"peopleCount": 1
	}`, rec.Body.String())
	assert.Equal(t, vision.Request{Image: "aGVsbG8=", PreviousCommentary: "Earlier", Personality: "jets", People: []string{"Sam"}}, analyzer.got)
}

func TestAnalyze_Fallback(t *testing.T) {
	h := New(nil, WithAnalyzer(&fakeAnalyzer{reply: []byte("The crowd is restless")})).Handler()

	rec := post(t, h, vision.AnalyzePath, `{"image":"aGVsbG8="}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "The crowd is restless", got["commentary"])
	assert.Nil(t, got["sound"])
	assert.Nil(t, got["peopleCount"])
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name     string
		analyzer vision.Analyzer
		body     string
		status   int
		message  string
	}{
		{"invalid json", &fakeAnalyzer{}, `{"image":`, http.StatusBadRequest, "invalid request body"},
		{"missing image", &fakeAnalyzer{}, `{"personality":"default"}`, http.StatusBadRequest, "image is required"},
		{"no key", nil, `{"image":"aGVsbG8="}`, http.StatusServiceUnavailable, "GEMINI_API_KEY not set"},
		{"bad base64", &fakeAnalyzer{err: fmt.Errorf("%w: bad", vision.ErrInvalidImage)}, `{"image":"!!"}`, http.StatusBadRequest, ""},
		{"credential rejected", &fakeAnalyzer{err: vision.ErrNotConfigured}, `{"image":"aGVsbG8="}`, http.StatusServiceUnavailable, "GEMINI_API_KEY not set"},
		{"upstream", &fakeAnalyzer{err: fmt.Errorf("%w: quota", vision.ErrUpstream)}, `{"image":"aGVsbG8="}`, http.StatusBadGateway, "analysis failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.analyzer != nil {
				opts = append(opts, WithAnalyzer(tt.analyzer))
			}
			rec := post(t, New(nil, opts...).Handler(), vision.AnalyzePath, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.message != "" {
				assert.Equal(t, tt.message, body["error"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestAnalyze_KeyName(t *testing.T) {
	rec := post(t, New(nil, WithVisionKeyName("MY_KEY")).Handler(), vision.AnalyzePath, `{"image":"aGVsbG8="}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"MY_KEY not set"}`, rec.Body.String())
}

func TestTTS(t *testing.T) {
	h := New(nil, WithSynthesizer(&fakeSynth{audio: "ID3-mp3-bytes"})).Handler()

	rec := post(t, h, voice.TTSPath, `{"text":"What a play!","personality":"eagles"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "ID3-mp3-bytes", rec.Body.String())
}

func TestTTS_NoContent(t *testing.T) {
	tests := []struct {
		name   string
		synth  voice.Synthesizer
		body   string
		reason string
	}{
		{"blank text", &fakeSynth{audio: "x"}, `{"text":"  ","personality":"default"}`, reasonNoText},
		{"no key", nil, `{"text":"hi"}`, reasonNotConfigured},
		{"provider not configured", &fakeSynth{err: provider.ErrNotConfigured}, `{"text":"hi"}`, reasonNotConfigured},
		{"no voice", &fakeSynth{err: voice.ErrNoContent}, `{"text":"hi"}`, reasonNoVoice},
		{"upstream failure", &fakeSynth{err: errors.New("status 500")}, `{"text":"hi"}`, reasonUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.synth != nil {
				opts = append(opts, WithSynthesizer(tt.synth))
			}
			rec := post(t, New(nil, opts...).Handler(), voice.TTSPath, tt.body)
			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tt.reason, rec.Header().Get(voice.UnavailableHeader))
			assert.Empty(t, rec.Body.String())
		})
	}

	rec := post(t, New(nil).Handler(), voice.TTSPath, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPersonalitiesAndHealth(t *testing.T) {
	h := New(nil, WithAnalyzer(&fakeAnalyzer{})).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/personalities", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 5)
	assert.Equal(t, "default", list[0]["id"])
	assert.NotEmpty(t, list[0]["name"])
	assert.NotContains(t, rec.Body.String(), "prompt")

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"status":"ok","vision":true,"speech":false}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, vision.AnalyzePath, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestClientsAgainstServer(t *testing.T) {
	ts := httptest.NewServer(New(nil,
		WithAnalyzer(&fakeAnalyzer{reply: []byte(`{"commentary":"Live!","momentum":"RISING"}`)}),
	).Handler())
	defer ts.Close()

	body, err := vision.NewClient(ts.URL).Analyze(context.Background(), vision.Request{Image: "aGVsbG8="})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"momentum":"rising"`)

	_, err = voice.NewClient(ts.URL).Synthesize(context.Background(), "hello", "default")
	assert.ErrorIs(t, err, voice.ErrNoContent)

	noKey := httptest.NewServer(New(nil).Handler())
	defer noKey.Close()
	_, err = vision.NewClient(noKey.URL).Analyze(context.Background(), vision.Request{Image: "aGVsbG8="})
	assert.ErrorIs(t, err, vision.ErrNotConfigured)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(nil).ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
