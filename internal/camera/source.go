package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// FileSource serves frames from an image file, or cycles through the
// images in a directory. Useful for demos and tests without a webcam.
type FileSource struct {
	path string

	mu    sync.Mutex
	files []string
	next  int
}

// NewFileSource creates a source reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Open lists the images to serve.
func (s *FileSource) Open(ctx context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("failed to open frame source: %w", err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(s.path)
		if err != nil {
			return fmt.Errorf("failed to read frame directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && isImage(entry.Name()) {
				files = append(files, filepath.Join(s.path, entry.Name()))
			}
		}
		slices.Sort(files)
	} else {
		files = []string{s.path}
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no images in %s", ErrNoFrame, s.path)
	}

	s.mu.Lock()
	s.files, s.next = files, 0
	s.mu.Unlock()
	return nil
}

// Frame decodes the next image.
func (s *FileSource) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	if len(s.files) == 0 {
		s.mu.Unlock()
		return nil, ErrNoFrame
	}
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// Close forgets the file list.
func (s *FileSource) Close() error {
	s.mu.Lock()
	s.files = nil
	s.mu.Unlock()
	return nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// FFmpegSource grabs single frames from a webcam through ffmpeg.
type FFmpegSource struct {
	device string
	format string
	bin    string
}

// NewFFmpegSource creates a source for device. An empty device picks the
// platform default.
func NewFFmpegSource(device string) *FFmpegSource {
	format, defaultDevice := platformInput()
	if device == "" {
		device = defaultDevice
	}
	return &FFmpegSource{device: device, format: format}
}

func platformInput() (format, device string) {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation", "0"
	case "windows":
		return "dshow", "video=Integrated Camera"
	default:
		return "v4l2", "/dev/video0"
	}
}

// Open checks ffmpeg is installed and grabs one frame to prove the device works.
func (s *FFmpegSource) Open(ctx context.Context) error {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	s.bin = bin
	if _, err := s.Frame(ctx); err != nil {
		return err
	}
	log.Debug().Str("device", s.device).Str("format", s.format).Msg("Camera opened")
	return nil
}

// Frame captures one frame.
func (s *FFmpegSource) Frame(ctx context.Context) (image.Image, error) {
	if s.bin == "" {
		return nil, ErrNoFrame
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.bin,
		"-hide_banner", "-loglevel", "error",
		"-f", s.format, "-i", s.device,
		"-frames:v", "1", "-f", "image2pipe", "-vcodec", "mjpeg", "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to capture from %s: %w: %s", s.device, err, strings.TrimSpace(stderr.String()))
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode captured frame: %w", err)
	}
	return img, nil
}

// Close releases nothing; each capture owns its own ffmpeg process.
func (s *FFmpegSource) Close() error {
	return nil
}
