package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// SpeechVolume is the playback volume for commentary speech.
const SpeechVolume = 0.8

// State is the speaker's playback state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
)

// Speaker owns the speech output. Every Speak stops the previous speech
// first, and the downloaded audio file is removed whichever way playback
// ends.
type Speaker struct {
	synth  Synthesizer
	player Player
	volume float64

	speakMu sync.Mutex // serializes Stop+start in Speak

	mu      sync.Mutex
	enabled bool
	state   State
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	onState func(State)
}

// NewSpeaker creates an enabled speaker.
func NewSpeaker(synth Synthesizer, player Player) *Speaker {
	return &Speaker{
		synth:   synth,
		player:  player,
		volume:  SpeechVolume,
		enabled: true,
		state:   StateIdle,
	}
}

// OnStateChange registers fn to receive state changes. fn runs with no
// speaker locks held.
func (s *Speaker) OnStateChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = fn
}

// State returns the current playback state.
func (s *Speaker) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Enabled reports whether Speak does anything.
func (s *Speaker) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled turns speech on or off. Disabling stops current speech.
func (s *Speaker) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
	if !enabled {
		s.Stop()
	}
}

// Speak stops any current speech and starts speaking text in the
// background. Blank text and a disabled speaker are ignored.
func (s *Speaker) Speak(text, personality string) {
	if !s.Enabled() || strings.TrimSpace(text) == "" {
		return
	}

	s.speakMu.Lock()
	defer s.speakMu.Unlock()
	s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.cancel, s.done = cancel, done
	s.mu.Unlock()
	s.setState(gen, StateLoading)

	go func() {
		defer close(done)
		defer cancel()
		if err := s.play(ctx, gen, text, personality); err != nil {
			log.Warn().Err(err).Msg("Speech playback failed")
		}
		s.setState(gen, StateIdle)
	}()
}

// Stop aborts the current speech and waits until its resources are released.
func (s *Speaker) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	gen := s.gen
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.setState(gen, StateIdle)
}

// Wait blocks until the current speech, if any, has finished.
func (s *Speaker) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Speaker) play(ctx context.Context, gen uint64, text, personality string) error {
	audio, err := s.synth.Synthesize(ctx, text, personality)
	if err != nil {
		if errors.Is(err, ErrNoContent) || ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer audio.Close()

	f, err := os.CreateTemp("", "colorcommentary-*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	_, err = io.Copy(f, audio)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to buffer audio: %w", err)
	}
	// Stopped while the audio was downloading.
	if ctx.Err() != nil {
		return nil
	}

	s.setState(gen, StatePlaying)
	if err := s.player.Play(ctx, f.Name(), s.volume); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// setState applies st only if gen is still the current speech.
func (s *Speaker) setState(gen uint64, st State) {
	s.mu.Lock()
	if gen != s.gen || s.state == st {
		s.mu.Unlock()
		return
	}
	s.state = st
	fn := s.onState
	s.mu.Unlock()

	if fn != nil {
		fn(st)
	}
}
