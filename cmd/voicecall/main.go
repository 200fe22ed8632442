// Package main is the entry point for the voicecall CLI.
//
// Usage:
//
//	voicecall [flags] <command> [args]
//
// Commands:
//
//	call       - Start a voice call with the agent
//	devices    - List available capture devices
//	history    - Browse saved call records (list, show, delete)
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/bobokit/voicecall/cmd/voicecall/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
