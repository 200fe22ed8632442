package cli

import (
	"strings"
	"testing"

	"github.com/bobokit/voicecall/pkg/call"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0ms"},
		{999, "999ms"},
		{1000, "1.0s"},
		{1500, "1.5s"},
		{59999, "60.0s"},
		{60000, "1m0.0s"},
		{90500, "1m30.5s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestRenderEntry(t *testing.T) {
	st := NewStyles(DefaultTheme)

	tests := []struct {
		speaker call.Speaker
		text    string
	}{
		{call.SpeakerAgent, "Hello there"},
		{call.SpeakerUser, "Hi"},
	}
	for _, tt := range tests {
		got := st.RenderEntry(call.Entry{Speaker: tt.speaker, Text: tt.text})
		if !strings.Contains(got, string(tt.speaker)+": "+tt.text) {
			t.Errorf("RenderEntry(%s) = %q, missing %q", tt.speaker, got, tt.text)
		}
	}
}
