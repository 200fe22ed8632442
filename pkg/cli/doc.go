// Package cli provides terminal helpers shared by the voicecall
// commands: a lipgloss color theme and formatting for transcripts
// and call records.
package cli
