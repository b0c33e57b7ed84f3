// Package server exposes the vision and speech endpoints over HTTP so that
// API keys stay on the server.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/daikw/colorcommentary/internal/commentary"
	"github.com/daikw/colorcommentary/internal/personality"
	"github.com/daikw/colorcommentary/internal/vision"
	"github.com/daikw/colorcommentary/internal/voice"
	"github.com/daikw/colorcommentary/internal/voice/provider"
)

const (
	// maxRequestBytes bounds request bodies; a 768x576 JPEG is well under it.
	maxRequestBytes = 10 << 20

	defaultShutdownTimeout = 5 * time.Second
)

// Reasons sent in voice.UnavailableHeader.
const (
	reasonNotConfigured = "not-configured"
	reasonNoText        = "no-text"
	reasonNoVoice       = "no-voice"
	reasonUpstream      = "upstream-error"
)

// Server routes the proxy endpoints. A nil analyzer or synthesizer means
// the matching credential is missing.
type Server struct {
	registry        *personality.Registry
	analyzer        vision.Analyzer
	synth           voice.Synthesizer
	visionKeyName   string
	shutdownTimeout time.Duration
}

type Option func(*Server)

func WithAnalyzer(a vision.Analyzer) Option {
	return func(s *Server) { s.analyzer = a }
}

func WithSynthesizer(synth voice.Synthesizer) Option {
	return func(s *Server) { s.synth = synth }
}

// WithVisionKeyName sets the variable named in the 503 error body.
func WithVisionKeyName(name string) Option {
	return func(s *Server) { s.visionKeyName = name }
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// New creates a server. A nil registry uses the built-in personalities.
func New(registry *personality.Registry, opts ...Option) *Server {
	if registry == nil {
		registry = personality.NewRegistry()
	}
	s := &Server{
		registry:        registry,
		visionKeyName:   "GEMINI_API_KEY",
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+vision.AnalyzePath, s.handleAnalyze)
	mux.HandleFunc("POST "+voice.TTSPath, s.handleTTS)
	mux.HandleFunc("GET /api/personalities", s.handlePersonalities)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return withLogging(mux)
}

// ListenAndServe runs the HTTP server until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	log.Info().
		Str("addr", addr).
		Bool("vision", s.analyzer != nil).
		Bool("speech", s.synth != nil).
		Msg("Server listening")
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		log.Info().Msg("Server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve http: %w", err)
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	var req vision.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, s.visionKeyName+" not set")
		return
	}

	raw, err := s.analyzer.Analyze(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, vision.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, vision.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, s.visionKeyName+" not set")
		return
	case r.Context().Err() != nil:
		logger.Debug().Err(err).Msg("Client went away during analysis")
		return
	default:
		logger.Warn().Err(err).Msg("Analysis failed")
		writeError(w, http.StatusBadGateway, "analysis failed")
		return
	}

	update := commentary.Normalize(raw)
	logger.Debug().
		Str("personality", req.Personality).
		Int("engagement", update.Engagement).
		Int("skepticism", update.Skepticism).
		Str("sound", string(update.Sound)).
		Msg("Analysis complete")
	writeJSON(w, http.StatusOK, update)
}

type ttsRequest struct {
	Text        string `json:"text"`
	Personality string `json:"personality"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	var req ttsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		noContent(w, reasonNoText)
		return
	}
	if s.synth == nil {
		noContent(w, reasonNotConfigured)
		return
	}

	audio, err := s.synth.Synthesize(r.Context(), req.Text, req.Personality)
	switch {
	case err == nil:
	case errors.Is(err, voice.ErrNoContent):
		noContent(w, reasonNoVoice)
		return
	case errors.Is(err, provider.ErrNotConfigured):
		noContent(w, reasonNotConfigured)
		return
	default:
		// Speech is optional, so the caller just gets silence.
		logger.Warn().Err(err).Msg("Speech synthesis failed")
		noContent(w, reasonUpstream)
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	n, err := io.Copy(flushWriter{w}, audio)
	if err != nil && r.Context().Err() == nil {
		logger.Warn().Err(err).Int64("bytes", n).Msg("Speech stream interrupted")
		return
	}
	logger.Debug().Int64("bytes", n).Str("personality", req.Personality).Msg("Speech streamed")
}

type personalityInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handlePersonalities(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List()
	infos := make([]personalityInfo, 0, len(list))
	for _, p := range list {
		infos = append(infos, personalityInfo{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"vision": s.analyzer != nil,
		"speech": s.synth != nil,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(v); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	return nil
}

func noContent(w http.ResponseWriter, reason string) {
	w.Header().Set(voice.UnavailableHeader, reason)
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

// flushWriter pushes audio to the client as it arrives.
type flushWriter struct {
	w http.ResponseWriter
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if flusher, ok := f.w.(http.Flusher); ok {
		flusher.Flush()
	}
	return n, err
}
