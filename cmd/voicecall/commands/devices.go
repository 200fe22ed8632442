package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobokit/voicecall/pkg/cli"
	"github.com/bobokit/voicecall/pkg/media"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture and playback devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := cli.NewStyles(cli.DefaultTheme)

		capture, err := media.CaptureDevices()
		if err != nil {
			return fmt.Errorf("list capture devices: %w", err)
		}
		fmt.Println(st.Label.Render("Capture"))
		printDevices(capture)

		playback, err := media.PlaybackDevices()
		if err != nil {
			return fmt.Errorf("list playback devices: %w", err)
		}
		fmt.Println(st.Label.Render("Playback"))
		printDevices(playback)
		return nil
	},
}

func printDevices(names []string) {
	if len(names) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
