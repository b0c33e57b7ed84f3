package broadcast

import (
	"fmt"
	"time"

	"github.com/daikw/colorcommentary/internal/commentary"
)

// MaxEvents is the length of the play-by-play log.
const MaxEvents = 6

// PlayEvent is one play-by-play log entry.
type PlayEvent struct {
	Time string               `json:"time"`
	Text string               `json:"text"`
	Type commentary.EventType `json:"type"`
}

// FormatElapsed renders d as MM:SS. Minutes keep growing past 99.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Derive builds the log entry for an update's event, if it has one.
func Derive(u commentary.Update, elapsed time.Duration) (PlayEvent, bool) {
	if u.Event == nil {
		return PlayEvent{}, false
	}
	return PlayEvent{
		Time: FormatElapsed(elapsed),
		Text: u.Event.Text,
		Type: u.Event.Type,
	}, true
}

// PushEvent returns a new log with ev first, keeping the MaxEvents most recent.
func PushEvent(log []PlayEvent, ev PlayEvent) []PlayEvent {
	n := min(len(log), MaxEvents-1)
	out := make([]PlayEvent, 0, n+1)
	out = append(out, ev)
	return append(out, log[:n]...)
}
