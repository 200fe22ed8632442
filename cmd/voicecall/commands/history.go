package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobokit/voicecall/pkg/cli"
	"github.com/bobokit/voicecall/pkg/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved call records",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		recs, err := store.List()
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No saved calls.")
			return nil
		}

		st := cli.NewStyles(cli.DefaultTheme)
		for _, r := range recs {
			ms := int(r.EndedAt.Time().Sub(r.StartedAt.Time()).Milliseconds())
			fmt.Printf("%s  %s  %s  %d turns\n",
				st.Label.Render(r.SessionID),
				r.StartedAt.Time().Format("2006-01-02 15:04:05"),
				cli.FormatDuration(ms),
				len(r.Entries))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the transcript of a saved call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Get(args[0])
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no call record %q", args[0])
		}
		if err != nil {
			return err
		}

		st := cli.NewStyles(cli.DefaultTheme)
		ms := int(rec.EndedAt.Time().Sub(rec.StartedAt.Time()).Milliseconds())
		fmt.Println(st.Title.Render(rec.SessionID))
		fmt.Println(st.Help.Render(fmt.Sprintf("%s, %s",
			rec.StartedAt.Time().Format("2006-01-02 15:04:05"),
			cli.FormatDuration(ms))))
		for _, e := range rec.Entries {
			fmt.Println(st.RenderEntry(e))
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Delete(args[0])
	},
}

func openHistory() (*history.Store, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(history.Options{Dir: cfg.HistoryPath()})
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}
