package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/daikw/colorcommentary/internal/broadcast"
	"github.com/daikw/colorcommentary/internal/commentary"
	"github.com/daikw/colorcommentary/internal/personality"
)

var (
	liveStyle        = color.New(color.FgRed, color.Bold)
	infoStyle        = color.New(color.FgCyan)
	errorStyle       = color.New(color.FgRed)
	commentaryStyle  = color.New(color.Bold)
	personalityStyle = color.New(color.FgMagenta)
	eventStyles      = map[commentary.EventType]*color.Color{
		commentary.EventPositive: color.New(color.FgGreen),
		commentary.EventNegative: color.New(color.FgRed),
		commentary.EventNeutral:  color.New(color.FgYellow),
	}
)

// renderer prints session snapshots as a scrolling broadcast log.
// Commentary is typed out; other lines wait until the typing ends.
type renderer struct {
	out      io.Writer
	registry *personality.Registry
	revealer *broadcast.Revealer
	now      func() time.Time

	mu      sync.Mutex
	last    broadcast.Snapshot
	target  string
	shown   string
	pending []string
}

func newRenderer(out io.Writer, registry *personality.Registry, step time.Duration) *renderer {
	r := &renderer{out: out, registry: registry, now: time.Now}
	r.revealer = broadcast.NewRevealer(step, r.emit)
	return r
}

// observe is registered with the session state.
func (r *renderer) observe(s broadcast.Snapshot) {
	r.mu.Lock()
	prev := r.last
	r.last = s

	var lines []string
	if s.Phase != prev.Phase || s.Countdown != prev.Countdown {
		if line := r.phaseLine(s); line != "" {
			lines = append(lines, line)
		}
	}
	if s.Personality != prev.Personality && prev.Personality != "" {
		lines = append(lines, personalityStyle.Sprintf("🎙  Now commentating: %s", r.registry.Get(s.Personality).Name))
	}
	if len(s.Events) > 0 && (len(prev.Events) == 0 || s.Events[0] != prev.Events[0]) {
		lines = append(lines, eventLine(s.Events[0]))
	}
	if !slices.Equal(s.Roster, prev.Roster) && s.Phase == broadcast.PhaseLive {
		lines = append(lines, rosterLine(s.Roster))
	}

	reveal := s.Commentary != "" && s.Commentary != prev.Commentary
	if r.revealing() {
		r.pending = append(r.pending, lines...)
	} else {
		r.println(lines...)
	}
	if reveal {
		if r.revealing() && r.shown != "" {
			fmt.Fprintln(r.out)
		}
		r.target, r.shown = s.Commentary, ""
	}
	stop := s.Phase == broadcast.PhaseIdle && prev.Phase == broadcast.PhaseLive
	r.mu.Unlock()

	// The revealer waits for its goroutine, which takes r.mu in emit.
	if reveal {
		r.revealer.Show(s.Commentary)
	}
	if stop {
		r.revealer.Stop()
		r.flush()
	}
}

// emit receives successively longer prefixes of the commentary.
func (r *renderer) emit(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prefix == r.shown {
		return
	}
	if strings.HasPrefix(prefix, r.shown) {
		commentaryStyle.Fprint(r.out, prefix[len(r.shown):])
	} else {
		// A newer line took over mid-way.
		fmt.Fprintln(r.out)
		commentaryStyle.Fprint(r.out, prefix)
	}
	r.shown = prefix

	if prefix == r.target {
		fmt.Fprintln(r.out)
		r.println(meterLine(r.last, r.now()))
		r.println(r.pending...)
		r.pending = nil
	}
}

// flush prints anything still queued.
func (r *renderer) flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revealing() && r.shown != "" {
		fmt.Fprintln(r.out)
	}
	r.target, r.shown = "", ""
	r.println(r.pending...)
	r.pending = nil
}

func (r *renderer) close() {
	r.revealer.Stop()
	r.flush()
}

func (r *renderer) revealing() bool {
	return r.target != "" && r.shown != r.target
}

func (r *renderer) println(lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(r.out, line)
	}
}

func (r *renderer) phaseLine(s broadcast.Snapshot) string {
	switch s.Phase {
	case broadcast.PhaseConnecting:
		return infoStyle.Sprint("📷 Connecting camera...")
	case broadcast.PhaseCountdown:
		return infoStyle.Sprintf("   %d...", s.Countdown)
	case broadcast.PhaseLive:
		p := r.registry.Get(s.Personality)
		return liveStyle.Sprint("● LIVE") + personalityStyle.Sprintf("  %s", p.Name)
	case broadcast.PhaseError:
		return errorStyle.Sprintf("✖ %s", s.Error) + "\n  Type 'start' to try again."
	case broadcast.PhaseIdle:
		if !s.StartedAt.IsZero() {
			return infoStyle.Sprintf("■ Off air after %s", broadcast.FormatElapsed(s.Elapsed(r.now())))
		}
	}
	return ""
}

func meterLine(s broadcast.Snapshot, now time.Time) string {
	return fmt.Sprintf("   %s  ENG %s  SKEP %s  %s",
		infoStyle.Sprintf("[%s]", broadcast.FormatElapsed(s.Elapsed(now))),
		meter(s.Engagement),
		meter(s.Skepticism),
		momentumLabel(s.Momentum),
	)
}

func meter(v int) string {
	const width = 10
	filled := (v*width + 50) / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	style := color.New(color.FgYellow)
	switch {
	case v >= 70:
		style = color.New(color.FgGreen)
	case v < 30:
		style = color.New(color.FgRed)
	}
	return style.Sprintf("%s %3d", bar, v)
}

func momentumLabel(m commentary.Momentum) string {
	switch m {
	case commentary.MomentumRising:
		return color.GreenString("%s %s", m.Symbol(), m)
	case commentary.MomentumFalling:
		return color.RedString("%s %s", m.Symbol(), m)
	}
	return fmt.Sprintf("%s %s", m.Symbol(), m)
}

func eventLine(ev broadcast.PlayEvent) string {
	style, ok := eventStyles[ev.Type]
	if !ok {
		style = color.New(color.Reset)
	}
	return style.Sprintf("   ⚑ %s  %s", ev.Time, ev.Text)
}

func rosterLine(r []string) string {
	if len(r) == 0 {
		return infoStyle.Sprint("   On camera: nobody named yet")
	}
	return infoStyle.Sprintf("   On camera: %s", strings.Join(r, ", "))
}
