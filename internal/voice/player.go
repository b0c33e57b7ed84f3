// Package voice plays commentary audio: synthesized speech and crowd cues.
package voice

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// ErrNoPlayer is returned when no supported audio player is installed.
var ErrNoPlayer = errors.New("no audio player found")

// Player plays an audio file to completion or until ctx is cancelled.
type Player interface {
	Play(ctx context.Context, path string, volume float64) error
}

// CommandPlayer plays audio through an external command.
type CommandPlayer struct {
	Command string
	args    func(path string, volume float64) []string
}

var players = []struct {
	command string
	args    func(path string, volume float64) []string
}{
	// macOS
	{"afplay", func(path string, v float64) []string {
		return []string{"-v", strconv.FormatFloat(v, 'f', 2, 64), path}
	}},
	// Cross-platform with ffmpeg
	{"ffplay", func(path string, v float64) []string {
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", strconv.Itoa(int(v * 100)), path}
	}},
	{"mpg123", func(path string, v float64) []string {
		return []string{"-q", "-f", strconv.Itoa(int(v * 32768)), path}
	}},
	// Linux with PulseAudio
	{"paplay", func(path string, v float64) []string {
		return []string{"--volume=" + strconv.Itoa(int(v*65536)), path}
	}},
}

// DetectPlayer returns the first supported player found in PATH.
func DetectPlayer() (*CommandPlayer, error) {
	for _, p := range players {
		if isCommandAvailable(p.command) {
			return &CommandPlayer{Command: p.command, args: p.args}, nil
		}
	}
	return nil, ErrNoPlayer
}

// Play runs the player and waits for it. Cancelling ctx kills the process.
func (p *CommandPlayer) Play(ctx context.Context, path string, volume float64) error {
	cmd := exec.CommandContext(ctx, p.Command, p.args(path, volume)...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to play audio with %s: %w", p.Command, err)
	}
	return nil
}

func isCommandAvailable(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}
