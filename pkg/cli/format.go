package cli

import (
	"fmt"

	"github.com/bobokit/voicecall/pkg/call"
)

// FormatDuration formats milliseconds to human readable string
func FormatDuration(ms int) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	secs := float64(ms) / 1000
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	secs = secs - float64(mins*60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}

// RenderEntry renders one transcript entry as a colored "speaker: text"
// line.
func (s Styles) RenderEntry(e call.Entry) string {
	line := fmt.Sprintf("%s: %s", e.Speaker, e.Text)
	switch e.Speaker {
	case call.SpeakerAgent:
		return s.Agent.Render(line)
	case call.SpeakerUser:
		return s.User.Render(line)
	default:
		return s.Help.Render(line)
	}
}
