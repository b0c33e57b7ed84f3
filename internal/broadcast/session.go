package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCountdown     = 3
	DefaultCountdownTick = 800 * time.Millisecond
)

// Session owns the lifecycle of one broadcast:
// idle, connecting, countdown, live, and back to idle on Stop.
// A camera that cannot be opened moves the session to error until Reset.
type Session struct {
	ID string

	controller *Controller
	frames     FrameSource
	narrator   Narrator
	countdown  int
	tick       time.Duration
	now        func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCountdown sets the countdown start and tick length.
func WithCountdown(from int, tick time.Duration) SessionOption {
	return func(s *Session) {
		if from >= 0 {
			s.countdown = from
		}
		if tick >= 0 {
			s.tick = tick
		}
	}
}

// NewSession creates a session around a controller.
func NewSession(controller *Controller, opts ...SessionOption) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		controller: controller,
		frames:     controller.frames,
		narrator:   controller.narrator,
		countdown:  DefaultCountdown,
		tick:       DefaultCountdownTick,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the session state.
func (s *Session) State() *State {
	return s.controller.state
}

// Controller returns the session controller.
func (s *Session) Controller() *Controller {
	return s.controller
}

// Start acquires the camera, counts down and goes live. The polling loop
// runs until Stop or until ctx is cancelled.
func (s *Session) Start(ctx context.Context) error {
	state := s.State()

	s.mu.Lock()
	if s.done != nil || state.Snapshot().Phase != PhaseIdle {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	// Reserve the session while the camera opens.
	s.done = make(chan struct{})
	s.mu.Unlock()

	logger := log.With().Str("session_id", s.ID).Logger()
	state.setPhase(PhaseConnecting)
	logger.Info().Msg("Connecting camera")

	if err := s.frames.Open(ctx); err != nil {
		s.abort()
		state.fail(fmt.Sprintf("Camera unavailable: %v. Check the device and try again.", err))
		logger.Error().Err(err).Msg("Failed to open camera")
		return fmt.Errorf("failed to open camera: %w", err)
	}

	for n := s.countdown; n >= 1; n-- {
		state.setCountdown(n)
		select {
		case <-ctx.Done():
			s.closeFrames()
			s.abort()
			state.setPhase(PhaseIdle)
			return ctx.Err()
		case <-time.After(s.tick):
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	done := s.done
	s.mu.Unlock()

	state.goLive(s.now())
	logger.Info().Msg("Broadcast live")

	go func() {
		defer close(done)
		if err := s.controller.Run(loopCtx); err != nil {
			logger.Error().Err(err).Msg("Polling loop stopped")
		}
	}()
	return nil
}

// Stop tears the session down: the loop ends after its current wait or
// cycle, the camera is released and speech stops.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	s.closeFrames()
	if s.narrator != nil {
		s.narrator.Stop()
	}
	s.release()
	s.State().setPhase(PhaseIdle)
	log.Info().Str("session_id", s.ID).Msg("Broadcast stopped")
}

// Wait blocks until the polling loop has ended.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Reset returns a failed session to idle so it can be started again.
func (s *Session) Reset() {
	state := s.State()
	if state.Snapshot().Phase == PhaseError {
		state.setPhase(PhaseIdle)
	}
}

// abort ends a start attempt that never went live.
func (s *Session) abort() {
	s.mu.Lock()
	if s.done != nil {
		close(s.done)
	}
	s.mu.Unlock()
	s.release()
}

func (s *Session) release() {
	s.mu.Lock()
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()
}

func (s *Session) closeFrames() {
	if err := s.frames.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close camera")
	}
}
