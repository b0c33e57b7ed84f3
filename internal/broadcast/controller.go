// Package broadcast runs a live commentary session: it samples frames,
// sends them for analysis one at a time and folds the replies into the
// session state.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/daikw/colorcommentary/internal/commentary"
	"github.com/daikw/colorcommentary/internal/vision"
)

// DefaultInterval is the pause between cycles.
const DefaultInterval = 3 * time.Second

var (
	// ErrSuperseded is the cancellation cause of a request replaced by a newer one.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrAlreadyRunning is returned when a loop or session is started twice.
	ErrAlreadyRunning = errors.New("broadcast already running")
)

// FrameSource produces frames on demand.
type FrameSource interface {
	Open(ctx context.Context) error
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// FrameEncoder turns a frame into the base64 JPEG sent for analysis.
type FrameEncoder interface {
	Encode(img image.Image) (string, error)
}

// CuePlayer plays crowd sound cues.
type CuePlayer interface {
	Play(sound commentary.Sound)
}

// Narrator speaks commentary. Speak must not block on playback.
type Narrator interface {
	Speak(text, personality string)
	Stop()
}

// Controller drives the capture, analyze and apply cycle. At most one
// analysis request is in flight; starting another, or switching
// personality, cancels it with ErrSuperseded and its reply is dropped.
type Controller struct {
	state    *State
	frames   FrameSource
	encoder  FrameEncoder
	analyzer vision.Analyzer
	cues     CuePlayer
	narrator Narrator
	interval time.Duration

	mu      sync.Mutex
	running bool
	gen     uint64
	cancel  context.CancelCauseFunc
	wake    chan struct{}
	pending bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithInterval sets the pause between cycles.
func WithInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithCuePlayer plays each update's sound cue.
func WithCuePlayer(p CuePlayer) ControllerOption {
	return func(c *Controller) { c.cues = p }
}

// WithNarrator forwards each update's commentary to speech.
func WithNarrator(n Narrator) ControllerOption {
	return func(c *Controller) { c.narrator = n }
}

// NewController wires a controller to its collaborators.
func NewController(state *State, frames FrameSource, encoder FrameEncoder, analyzer vision.Analyzer, opts ...ControllerOption) *Controller {
	c := &Controller{
		state:    state,
		frames:   frames,
		encoder:  encoder,
		analyzer: analyzer,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the state the controller writes to.
func (c *Controller) State() *State {
	return c.state
}

// Run cycles until ctx is cancelled. A superseded cycle is followed
// immediately by the next one; any other failure is logged and the loop
// waits out the normal interval.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	for ctx.Err() == nil {
		err := c.Cycle(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrSuperseded):
			log.Debug().Msg("Cycle superseded, starting next cycle")
			continue
		case ctx.Err() != nil:
			return nil
		default:
			log.Warn().Err(err).Msg("Commentary cycle failed")
		}

		if !c.wait(ctx) {
			return nil
		}
	}
	return nil
}

// Cycle runs one capture, analyze and apply iteration.
func (c *Controller) Cycle(ctx context.Context) error {
	reqCtx, gen := c.begin(ctx)
	defer c.finish(gen)

	cycleID := uuid.NewString()
	logger := log.With().Str("cycle_id", cycleID).Logger()

	img, err := c.frames.Frame(reqCtx)
	if err != nil {
		return c.classify(reqCtx, fmt.Errorf("failed to capture frame: %w", err))
	}
	payload, err := c.encoder.Encode(img)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	snap := c.state.Snapshot()
	req := vision.Request{
		Image:              payload,
		PreviousCommentary: snap.PreviousCommentary,
		Personality:        snap.Personality,
		People:             snap.Roster.Filtered(),
	}
	logger.Debug().
		Str("personality", req.Personality).
		Int("people", len(req.People)).
		Int("payload_bytes", len(payload)).
		Msg("Sending frame for analysis")

	raw, err := c.analyzer.Analyze(reqCtx, req)
	if err != nil {
		return c.classify(reqCtx, fmt.Errorf("failed to analyze frame: %w", err))
	}

	u := commentary.Normalize(raw)

	// Checking the generation and applying happen under one lock so a
	// personality switch cannot slip in between.
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		logger.Debug().Msg("Dropping reply from superseded request")
		return ErrSuperseded
	}
	eff := c.state.Apply(u)
	c.mu.Unlock()

	logger.Debug().
		Str("commentary", u.Commentary).
		Int("engagement", u.Engagement).
		Int("skepticism", u.Skepticism).
		Str("momentum", string(u.Momentum)).
		Bool("event", eff.Event != nil).
		Bool("roster_changed", eff.RosterChanged).
		Msg("Applied update")

	if eff.Sound != commentary.SoundNone && c.cues != nil {
		c.cues.Play(eff.Sound)
	}
	if c.narrator != nil && u.Commentary != "" {
		c.narrator.Speak(u.Commentary, req.Personality)
	}
	return nil
}

// SwitchPersonality changes the personality, abandons any in-flight
// request and starts the next cycle without waiting.
func (c *Controller) SwitchPersonality(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.SetPersonality(id)
	c.supersede()
	log.Info().Str("personality", id).Msg("Switched personality")
}

// PollNow cuts the current wait short. It has no effect while a request
// is in flight.
func (c *Controller) PollNow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signal()
}

// supersede cancels the in-flight request, or wakes the wait. Callers hold c.mu.
func (c *Controller) supersede() {
	c.gen++
	if c.cancel != nil {
		c.cancel(ErrSuperseded)
		c.cancel = nil
		return
	}
	if !c.signal() {
		// Between cycles: the next wait returns at once.
		c.pending = true
	}
}

func (c *Controller) signal() bool {
	if c.wake == nil {
		return false
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

func (c *Controller) begin(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel(ErrSuperseded)
	}
	c.gen++
	c.pending = false
	reqCtx, cancel := context.WithCancelCause(ctx)
	c.cancel = cancel
	return reqCtx, c.gen
}

func (c *Controller) finish(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen == c.gen && c.cancel != nil {
		c.cancel(nil)
		c.cancel = nil
	}
}

func (c *Controller) classify(reqCtx context.Context, err error) error {
	if errors.Is(context.Cause(reqCtx), ErrSuperseded) {
		return fmt.Errorf("%w: %w", ErrSuperseded, err)
	}
	return err
}

// wait sleeps for the interval or until woken. It reports false when ctx ends.
func (c *Controller) wait(ctx context.Context) bool {
	wake := make(chan struct{}, 1)
	c.mu.Lock()
	if c.pending {
		c.pending = false
		c.mu.Unlock()
		return ctx.Err() == nil
	}
	c.wake = wake
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.wake = nil
		c.mu.Unlock()
	}()

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	case <-wake:
		log.Debug().Msg("Woken early")
	}
	return true
}
