// Package commentary defines the commentary update produced by the vision
// model and the rules that turn an untrusted model reply into one.
package commentary

import (
	"encoding/json"
	"strings"
)

// DefaultScore is used for engagement and skepticism when the reply carries no usable value.
const DefaultScore = 50

// FallbackLength is the number of characters of an unparseable reply kept as commentary.
const FallbackLength = 200

// Momentum describes which way the room is trending.
type Momentum string

const (
	MomentumRising  Momentum = "rising"
	MomentumFalling Momentum = "falling"
	MomentumSteady  Momentum = "steady"
)

// ParseMomentum maps s onto a Momentum, case-insensitively. Anything else is steady.
func ParseMomentum(s string) Momentum {
	switch m := Momentum(strings.ToLower(strings.TrimSpace(s))); m {
	case MomentumRising, MomentumFalling, MomentumSteady:
		return m
	}
	return MomentumSteady
}

// Symbol returns the stats panel glyph for m.
func (m Momentum) Symbol() string {
	switch m {
	case MomentumRising:
		return "▲"
	case MomentumFalling:
		return "▼"
	default:
		return "▶"
	}
}

// Sound is a crowd sound cue. The zero value means no cue.
type Sound string

const (
	SoundNone   Sound = ""
	SoundCheer  Sound = "cheer"
	SoundGasp   Sound = "gasp"
	SoundOrgan  Sound = "organ"
	SoundBuzzer Sound = "buzzer"
)

// Sounds lists every playable cue.
var Sounds = []Sound{SoundCheer, SoundGasp, SoundOrgan, SoundBuzzer}

// ParseSound maps s onto a Sound. "none" and unknown values map to SoundNone.
func ParseSound(s string) Sound {
	switch c := Sound(strings.ToLower(strings.TrimSpace(s))); c {
	case SoundCheer, SoundGasp, SoundOrgan, SoundBuzzer:
		return c
	}
	return SoundNone
}

// MarshalJSON encodes SoundNone as null.
func (s Sound) MarshalJSON() ([]byte, error) {
	if s == SoundNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts null, "none" and any string, mapping unknown cues to SoundNone.
func (s *Sound) UnmarshalJSON(data []byte) error {
	var v *string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*s = SoundNone
		return nil
	}
	*s = ParseSound(*v)
	return nil
}

// EventType classifies a notable moment.
type EventType string

const (
	EventPositive EventType = "positive"
	EventNegative EventType = "negative"
	EventNeutral  EventType = "neutral"
)

// ParseEventType reports whether s names a known event type.
func ParseEventType(s string) (EventType, bool) {
	switch t := EventType(strings.ToLower(strings.TrimSpace(s))); t {
	case EventPositive, EventNegative, EventNeutral:
		return t, true
	}
	return "", false
}

// Event annotates a notable moment in the frame.
type Event struct {
	Type EventType `json:"type"`
	Text string    `json:"text"`
}

// Update is a normalized commentary update. Every field is within its domain.
type Update struct {
	Commentary    string   `json:"commentary"`
	Engagement    int      `json:"engagement"`
	Skepticism    int      `json:"skepticism"`
	Momentum      Momentum `json:"momentum"`
	Event         *Event   `json:"event"`
	Sound         Sound    `json:"sound"`
	DetectedNames []string `json:"detectedNames"`
	PeopleCount   *int     `json:"peopleCount"`
}

// Fallback builds the degraded update used when a reply cannot be parsed.
func Fallback(raw string) Update {
	text := []rune(raw)
	if len(text) > FallbackLength {
		text = text[:FallbackLength]
	}
	return Update{
		Commentary: string(text),
		Engagement: DefaultScore,
		Skepticism: DefaultScore,
		Momentum:   MomentumSteady,
	}
}
