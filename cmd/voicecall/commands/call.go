package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobokit/voicecall/pkg/backend"
	"github.com/bobokit/voicecall/pkg/call"
	"github.com/bobokit/voicecall/pkg/cli"
	"github.com/bobokit/voicecall/pkg/history"
	"github.com/bobokit/voicecall/pkg/jsontime"
	"github.com/bobokit/voicecall/pkg/media"
	"github.com/bobokit/voicecall/pkg/signaling"
)

var (
	flagGateway string
	flagAPI     string
	flagUser    string
	flagToken   string
	flagWindow  time.Duration
	flagNoSave  bool
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Start a voice call with the agent",
	Long: `Start a voice call against the configured gateway.

The microphone is captured in fixed windows. Each window is sent to the
gateway as one turn, and the agent's spoken reply is played before the
next window opens. Press Ctrl+C to hang up.`,
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&flagGateway, "gateway", "", "gateway websocket URL (overrides config)")
	callCmd.Flags().StringVar(&flagAPI, "api", "", "session API base URL (overrides config)")
	callCmd.Flags().StringVar(&flagUser, "user", "", "user ID (overrides config)")
	callCmd.Flags().StringVar(&flagToken, "token", "", "bearer token for the session API (overrides config)")
	callCmd.Flags().DurationVar(&flagWindow, "window", 0, "capture window per turn (default 5s)")
	callCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "do not save the call to history")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	gatewayURL := cfg.GatewayURL
	if flagGateway != "" {
		gatewayURL = flagGateway
	}
	apiURL := cfg.APIURL
	if flagAPI != "" {
		apiURL = flagAPI
	}
	userID := cfg.UserID
	if flagUser != "" {
		userID = flagUser
	}
	token := cfg.Token
	if flagToken != "" {
		token = flagToken
	}

	if gatewayURL == "" || apiURL == "" || userID == "" {
		return fmt.Errorf("gateway, api, and user are required. Set them via flags or %s:\n"+
			"  gateway_url: wss://gw.example.com/ws\n"+
			"  api_url: https://api.example.com/v1\n"+
			"  user_id: u-123", "config.yaml")
	}

	st := cli.NewStyles(cli.DefaultTheme)

	capture := &media.MalgoCapture{}
	player := &media.OtoPlayer{}
	defer player.Close()

	done := make(chan struct{})
	failed := make(chan struct{}, 1)

	sess, err := call.NewSession(call.Options{
		UserID:        userID,
		Backend:       &backend.Client{BaseURL: apiURL, Token: token},
		Dialer:        &signaling.WebSocketDialer{URL: gatewayURL},
		Capture:       capture,
		Player:        player,
		CaptureWindow: flagWindow,
		OnStateChange: func(s call.State) {
			slog.Debug("call state", "state", s.String())
			if s == call.StateFailed {
				select {
				case failed <- struct{}{}:
				default:
				}
			}
		},
		OnEntry: func(e call.Entry) {
			fmt.Println(st.RenderEntry(e))
		},
		OnComplete: func() { close(done) },
	})
	if err != nil {
		return err
	}

	if err := sess.Start(context.Background()); err != nil {
		return err
	}
	fmt.Println(st.Help.Render("Calling... press Ctrl+C to hang up"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-sigCh:
			fmt.Println(st.Help.Render("Hanging up..."))
			sess.Hangup()

		case <-done:
			printSummary(st, sess)
			return saveRecord(cfg.HistoryPath(), sess)

		case <-failed:
			f := sess.Err()
			if saveErr := saveRecord(cfg.HistoryPath(), sess); saveErr != nil {
				slog.Warn("saving call record", "error", saveErr)
			}
			if f != nil && f.Retryable() {
				return fmt.Errorf("call failed: %w (retry with 'voicecall call')", f)
			}
			return fmt.Errorf("call failed: %w", f)
		}
	}
}

func printSummary(st cli.Styles, sess *call.Session) {
	ms := int(sess.EndedAt().Sub(sess.StartedAt()).Milliseconds())
	fmt.Println(st.Title.Render("Call ended") + st.Help.Render(
		fmt.Sprintf("  %s, %d turns", cli.FormatDuration(ms), len(sess.Transcript()))))
}

// saveRecord persists the finished call. A call that never got a
// session ID (e.g. backend refused) has nothing to record.
func saveRecord(dir string, sess *call.Session) error {
	if flagNoSave || sess.ID() == "" {
		return nil
	}
	store, err := history.Open(history.Options{Dir: dir})
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	// A failed call never reaches StateEnded, so it has no end stamp.
	ended := sess.EndedAt()
	if ended.IsZero() {
		ended = time.Now()
	}
	rec := &history.Record{
		SessionID: sess.ID(),
		StartedAt: jsontime.Milli(sess.StartedAt()),
		EndedAt:   jsontime.Milli(ended),
		Entries:   sess.Transcript(),
	}
	if err := store.Save(rec); err != nil {
		return fmt.Errorf("save call record: %w", err)
	}
	return nil
}
