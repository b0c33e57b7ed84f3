// Package vision sends webcam frames to a vision-language model and returns
// its raw reply. Replies are untrusted; callers run them through
// commentary.Normalize.
package vision

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured means the model credential is missing. Servers report it as service unavailable.
	ErrNotConfigured = errors.New("vision model not configured")
	// ErrInvalidImage means the request image is empty or not base64.
	ErrInvalidImage = errors.New("invalid image payload")
	// ErrUpstream wraps failures reported by the model or the analysis endpoint.
	ErrUpstream = errors.New("vision upstream error")
	// ErrEmptyResponse means the model answered without any text.
	ErrEmptyResponse = errors.New("no response text")
	// ErrMalformedResponse means the analysis endpoint answered with something other than JSON.
	ErrMalformedResponse = errors.New("malformed analysis response")
)

// Request is one frame plus the context the model needs to comment on it.
type Request struct {
	// Image is a base64 JPEG.
	Image              string   `json:"image"`
	PreviousCommentary string   `json:"previousCommentary"`
	Personality        string   `json:"personality"`
	People             []string `json:"people"`
}

// Analyzer turns a frame into a raw model reply.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) ([]byte, error)
}
