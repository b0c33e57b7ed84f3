package camera

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestEncoder_Encode(t *testing.T) {
	e := NewEncoder()

	payload, err := e.Encode(solid(64, 48, color.RGBA{R: 200, A: 255}))
	require.NoError(t, err)

	data, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, DefaultHeight, cfg.Height)
}

func TestEncoder_EmptyFrame(t *testing.T) {
	_, err := NewEncoder().Encode(image.NewRGBA(image.Rectangle{}))
	assert.ErrorIs(t, err, ErrNoFrame)

	_, err = NewEncoder().Encode(nil)
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestFileSource_Directory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), solid(2, 2, color.White))
	writePNG(t, filepath.Join(dir, "b.png"), solid(3, 3, color.Black))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	s := NewFileSource(dir)
	ctx := context.Background()

	_, err := s.Frame(ctx)
	assert.ErrorIs(t, err, ErrNoFrame)

	require.NoError(t, s.Open(ctx))

	var widths []int
	for range 3 {
		img, err := s.Frame(ctx)
		require.NoError(t, err)
		widths = append(widths, img.Bounds().Dx())
	}
	assert.Equal(t, []int{2, 3, 2}, widths)

	require.NoError(t, s.Close())
	_, err = s.Frame(ctx)
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestFileSource_OpenErrors(t *testing.T) {
	ctx := context.Background()

	assert.Error(t, NewFileSource(filepath.Join(t.TempDir(), "missing.jpg")).Open(ctx))
	assert.ErrorIs(t, NewFileSource(t.TempDir()).Open(ctx), ErrNoFrame)
}

func TestFFmpegSource_FrameBeforeOpen(t *testing.T) {
	s := NewFFmpegSource("")
	assert.NotEmpty(t, s.device)

	_, err := s.Frame(context.Background())
	assert.ErrorIs(t, err, ErrNoFrame)
}
