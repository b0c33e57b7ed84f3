package broadcast

import (
	"context"
	"sync"
	"time"
)

// RevealStep is the delay between revealed characters.
const RevealStep = 25 * time.Millisecond

// Reveal calls emit with successively longer prefixes of text, one rune
// per step, ending with the full text. It returns ctx.Err() if cancelled
// before the text is complete.
func Reveal(ctx context.Context, text string, step time.Duration, emit func(string)) error {
	runes := []rune(text)
	if len(runes) == 0 {
		emit("")
		return nil
	}

	ticker := time.NewTicker(max(step, time.Nanosecond))
	defer ticker.Stop()

	for i := 1; i <= len(runes); i++ {
		emit(string(runes[:i]))
		if i == len(runes) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Revealer restarts a Reveal whenever the text changes. Showing the same
// text again leaves the running reveal alone.
type Revealer struct {
	step time.Duration
	emit func(string)

	mu     sync.Mutex
	text   string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRevealer creates a revealer that writes through emit.
func NewRevealer(step time.Duration, emit func(string)) *Revealer {
	return &Revealer{step: step, emit: emit}
}

// Show starts revealing text. It reports false when text is already shown.
func (r *Revealer) Show(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if text == r.text && r.done != nil {
		return false
	}
	r.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.text, r.cancel, r.done = text, cancel, done
	go func() {
		defer close(done)
		_ = Reveal(ctx, text, r.step, r.emit)
	}()
	return true
}

// Stop cancels the running reveal and waits for it to end.
func (r *Revealer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Revealer) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel, r.done = nil, nil
}
