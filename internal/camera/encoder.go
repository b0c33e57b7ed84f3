// Package camera captures webcam frames and encodes them for analysis.
package camera

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

const (
	DefaultWidth   = 768
	DefaultHeight  = 576
	DefaultQuality = 70
)

// ErrNoFrame is returned when a source has nothing to deliver.
var ErrNoFrame = errors.New("no frame available")

// Encoder scales a frame to a fixed canvas and encodes it as base64 JPEG.
// The frame is stretched to the canvas; aspect ratio is not preserved.
type Encoder struct {
	Width   int
	Height  int
	Quality int
}

// NewEncoder returns an encoder with the default 768x576 canvas at quality 70.
func NewEncoder() *Encoder {
	return &Encoder{Width: DefaultWidth, Height: DefaultHeight, Quality: DefaultQuality}
}

// Encode implements broadcast.FrameEncoder.
func (e *Encoder) Encode(img image.Image) (string, error) {
	data, err := e.JPEG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// JPEG scales img and returns the raw JPEG bytes.
func (e *Encoder) JPEG(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNoFrame
	}

	canvas := image.NewRGBA(image.Rect(0, 0, e.Width, e.Height))
	draw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), img, img.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
