package vision

import (
	"fmt"
	"strings"

	"github.com/daikw/colorcommentary/internal/personality"
)

// ResponseFormat is appended to every personality prompt.
const ResponseFormat = `Respond with a JSON object with these fields:
- commentary: your 1-2 sentence play-by-play (plain English)
- engagement: 0-100 based on body language
- skepticism: 0-100 based on expressions
- momentum: "rising", "falling", or "steady"
- event: null, or {"type":"positive"|"negative"|"neutral","text":"what happened"} for notable moments
- sound: null, or "cheer"/"gasp"/"organ"/"buzzer" for big moments (rare)
- detectedNames: names read from visible name tags, left to right, or []
- peopleCount: how many people are visible right now`

// SystemPrompt returns the system instruction for p.
func SystemPrompt(p personality.Personality) string {
	return strings.TrimSpace(p.Prompt) + "\n\n" + ResponseFormat
}

// UserPrompt builds the per-frame instruction. The previous line is quoted
// so the model avoids repeating itself; known names let it address people.
func UserPrompt(previous string, people []string) string {
	var b strings.Builder
	if previous != "" {
		fmt.Fprintf(&b, "Your previous commentary was: %q. Say something DIFFERENT now.\n\n", previous)
	}
	if len(people) > 0 {
		fmt.Fprintf(&b, "The players in frame, left to right, are: %s. Use their names.\n\n", strings.Join(people, ", "))
	}
	b.WriteString("Describe what you see in this image.")
	return b.String()
}
