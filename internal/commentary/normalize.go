package commentary

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// object is a decoded JSON object whose values are still raw.
type object map[string]json.RawMessage

// Normalize turns a raw model reply into an Update. It never fails: a reply
// that is not a JSON object degrades to Fallback.
//
// Models sometimes wrap their JSON answer inside the commentary string of an
// outer envelope. One level of that nesting is unwrapped.
func Normalize(raw []byte) Update {
	obj, ok := decodeObject(raw)
	if !ok {
		return Fallback(string(raw))
	}
	if inner, ok := unwrap(obj); ok {
		obj = inner
	}

	u := Update{
		Engagement: score(obj["engagement"]),
		Skepticism: score(obj["skepticism"]),
		Momentum:   MomentumSteady,
	}
	if s, ok := stringValue(obj["commentary"]); ok {
		u.Commentary = s
	}
	if s, ok := stringValue(obj["momentum"]); ok {
		u.Momentum = ParseMomentum(s)
	}
	if s, ok := stringValue(obj["sound"]); ok {
		u.Sound = ParseSound(s)
	}
	u.Event = event(obj["event"])
	u.DetectedNames = names(obj["detectedNames"])
	u.PeopleCount = count(obj["peopleCount"])
	return u
}

// NormalizeString is Normalize for string input.
func NormalizeString(raw string) Update {
	return Normalize([]byte(raw))
}

func decodeObject(raw []byte) (object, bool) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func unwrap(obj object) (object, bool) {
	s, ok := stringValue(obj["commentary"])
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	inner, ok := decodeObject([]byte(s))
	if !ok {
		return nil, false
	}
	if v, has := inner["commentary"]; !has || isNull(v) {
		return nil, false
	}
	return inner, true
}

func isNull(v json.RawMessage) bool {
	return len(v) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func stringValue(v json.RawMessage) (string, bool) {
	if isNull(v) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// number accepts JSON numbers and numeric strings.
func number(v json.RawMessage) (float64, bool) {
	if isNull(v) {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		s, ok := stringValue(v)
		if !ok {
			return 0, false
		}
		n, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// score rounds to the nearest integer and clamps to [0,100]. An explicit
// zero is a real score and is kept.
func score(v json.RawMessage) int {
	n, ok := number(v)
	if !ok {
		return DefaultScore
	}
	return int(math.Round(math.Max(0, math.Min(100, n))))
}

func event(v json.RawMessage) *Event {
	if isNull(v) {
		return nil
	}
	var obj object
	if err := json.Unmarshal(v, &obj); err != nil || obj == nil {
		return nil
	}
	s, ok := stringValue(obj["type"])
	if !ok {
		return nil
	}
	t, ok := ParseEventType(s)
	if !ok {
		return nil
	}
	text, _ := stringValue(obj["text"])
	return &Event{Type: t, Text: text}
}

// names keeps the string entries of an array, in order.
func names(v json.RawMessage) []string {
	if isNull(v) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := stringValue(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func count(v json.RawMessage) *int {
	n, ok := number(v)
	if !ok || n < 0 || n > math.MaxInt32 {
		return nil
	}
	c := int(n)
	return &c
}
