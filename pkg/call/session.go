package call

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobokit/voicecall/pkg/backend"
	"github.com/bobokit/voicecall/pkg/media"
	"github.com/bobokit/voicecall/pkg/signaling"
)

const (
	// DefaultCaptureWindow bounds one recording segment, guaranteeing
	// forward progress even if the user never stops speaking.
	DefaultCaptureWindow = 5000 * time.Millisecond

	// DefaultTeardownTimeout bounds each network step of teardown so
	// hangup never blocks on an acknowledgement.
	DefaultTeardownTimeout = 3 * time.Second

	// downlinkFormat is the mime type of agent audio.
	downlinkFormat = "audio/pcm"
)

// Options configures a Session. Backend, Dialer, Capture, and Player are
// required.
type Options struct {
	UserID  string
	Backend backend.Backend
	Dialer  signaling.Dialer
	Capture media.Capture
	Player  media.Player

	// CaptureWindow defaults to DefaultCaptureWindow.
	CaptureWindow time.Duration

	// TeardownTimeout defaults to DefaultTeardownTimeout.
	TeardownTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnStateChange observes every state transition.
	OnStateChange func(State)

	// OnEntry observes every transcript entry, in order.
	OnEntry func(Entry)

	// OnComplete fires exactly once when the session reaches StateEnded.
	OnComplete func()
}

// Session is one call from Start to a terminal state. It exclusively
// owns its microphone stream and signaling channel; both are released
// exactly once, on every exit path, through a single teardown routine.
type Session struct {
	opts       Options
	logger     *slog.Logger
	transcript *Transcript

	// startToken makes Start single-flight: a re-entrant Start never
	// acquires a second microphone stream or opens a second channel.
	startToken   atomic.Bool
	completeOnce sync.Once

	mu           sync.Mutex
	state        State
	failure      *Failure
	speaker      Speaker
	id           string
	greeting     string
	startedAt    time.Time
	endedAt      time.Time
	conn         signaling.Conn
	loopCancel   context.CancelFunc
	teardownOnce *sync.Once
}

// NewSession creates an idle session.
func NewSession(opts Options) (*Session, error) {
	if opts.Backend == nil || opts.Dialer == nil || opts.Capture == nil || opts.Player == nil {
		return nil, errors.New("call: Backend, Dialer, Capture, and Player are required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Session{opts: opts, logger: opts.Logger}
	s.transcript = NewTranscript(opts.OnEntry)
	return s, nil
}

// Start begins the call: backend session start, microphone acquisition,
// greeting playback, channel dial, then the turn-taking loop in the
// background. A duplicate Start is a no-op. Canceling ctx behaves like
// Hangup.
func (s *Session) Start(ctx context.Context) error {
	if !s.startToken.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	s.teardownOnce = new(sync.Once)
	s.mu.Unlock()
	s.setState(StateConnecting)
	return s.run(ctx)
}

// Retry re-runs Start on a fresh resource set. Only valid from the
// error state.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateFailed {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("call: retry is only valid in the error state (state %s)", st)
	}
	s.failure = nil
	s.conn = nil
	s.id = ""
	s.teardownOnce = new(sync.Once)
	s.mu.Unlock()
	s.setState(StateConnecting)
	return s.run(ctx)
}

// run drives the connecting phase and launches the turn loop.
func (s *Session) run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.loopCancel = cancel
	s.mu.Unlock()

	info, err := s.opts.Backend.StartSession(runCtx, s.opts.UserID)
	if err != nil {
		s.fail(FailureSessionStart, err)
		return err
	}
	if runCtx.Err() != nil {
		// Hung up while the backend was answering; the session was
		// issued after teardown ran, so close it here.
		ectx, ecancel := context.WithTimeout(context.Background(), s.teardownTimeout())
		_ = s.opts.Backend.EndSession(ectx, info.SessionID)
		ecancel()
		return nil
	}
	s.logger.Info("call: session started", "session", info.SessionID)

	s.mu.Lock()
	s.id = info.SessionID
	s.greeting = info.GreetingText
	s.startedAt = time.Now()
	s.mu.Unlock()

	if err := s.opts.Capture.Acquire(runCtx); err != nil {
		kind := FailureCapture
		if media.IsPermission(err) {
			kind = FailurePermission
		}
		s.fail(kind, err)
		return err
	}
	if runCtx.Err() != nil {
		// Hung up while acquiring; Release is idempotent, so this is
		// safe whether or not teardown already ran.
		s.opts.Capture.Release()
		return nil
	}

	s.transcript.Append(SpeakerAgent, info.GreetingText)
	s.playAbsorbed(runCtx, info.GreetingAudio)

	conn, err := s.opts.Dialer.Dial(runCtx, info.SessionID)
	if err != nil {
		s.fail(FailureTransport, err)
		return err
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		// Torn down while dialing.
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	s.mu.Unlock()

	s.setState(StateActive)
	go s.turnLoop(runCtx, conn)
	return nil
}

// turnLoop is the half-duplex cycle: capture one segment, send it, await
// the response, play it, repeat. It runs until a goodbye, a hangup, or
// an error.
func (s *Session) turnLoop(ctx context.Context, conn signaling.Conn) {
	for {
		if ctx.Err() != nil {
			s.teardown(StateEnded, nil)
			return
		}

		s.setSpeaker(SpeakerUser)
		seg, err := s.opts.Capture.CaptureSegment(ctx, s.captureWindow())
		s.setSpeaker(SpeakerNone)
		if err != nil {
			if ctx.Err() != nil {
				s.teardown(StateEnded, nil)
				return
			}
			kind := FailureCapture
			if media.IsPermission(err) {
				kind = FailurePermission
			}
			s.fail(kind, err)
			return
		}
		s.logger.Debug("call: segment captured", "bytes", len(seg.Bytes))

		if err := conn.Send(ctx, signaling.NewAudio(seg.Bytes, seg.Format)); err != nil {
			if ctx.Err() != nil {
				s.teardown(StateEnded, nil)
				return
			}
			s.fail(FailureTransport, err)
			return
		}

		var msg *signaling.Message
		select {
		case <-ctx.Done():
			s.teardown(StateEnded, nil)
			return
		case in, ok := <-conn.Messages():
			if ctx.Err() != nil {
				// The stream ended because hangup closed the channel.
				s.teardown(StateEnded, nil)
				return
			}
			switch {
			case !ok:
				s.fail(FailureTransport, errors.New("call: channel closed while awaiting response"))
				return
			case in.Err != nil:
				var perr *signaling.ProtocolError
				if errors.As(in.Err, &perr) {
					s.fail(FailureProtocol, in.Err)
				} else {
					s.fail(FailureTransport, in.Err)
				}
				return
			}
			msg = in.Msg
		}

		switch msg.Type {
		case signaling.TypeResponse:
			if msg.UserText != "" {
				s.transcript.Append(SpeakerUser, msg.UserText)
			}
			s.transcript.Append(SpeakerAgent, msg.Text)
			s.playAbsorbed(ctx, msg.Audio)

		case signaling.TypeGoodbye:
			s.logger.Info("call: goodbye from agent")
			s.transcript.Append(SpeakerAgent, msg.Text)
			s.playAbsorbed(ctx, msg.Audio)
			s.teardown(StateEnded, nil)
			return

		default:
			s.fail(FailureProtocol, &signaling.ProtocolError{
				Tag:     string(msg.Type),
				Message: "unexpected message from gateway",
			})
			return
		}
	}
}

// Hangup ends the call from any non-terminal state. It stops an
// in-flight recording, abandons any awaited response, and reaches
// StateEnded within a bounded time.
func (s *Session) Hangup() {
	s.mu.Lock()
	switch s.state {
	case StateIdle, StateEnding, StateEnded:
		s.mu.Unlock()
		return
	case StateFailed:
		// Resources were already released when the session failed.
		s.failure = nil
		s.endedAt = time.Now()
		s.mu.Unlock()
		s.setState(StateEnded)
		s.complete()
		return
	}
	s.mu.Unlock()
	s.teardown(StateEnded, nil)
}

// Close dismisses the session; it is the presentation layer's close
// action in the error state and is otherwise equivalent to Hangup.
func (s *Session) Close() { s.Hangup() }

// fail releases resources and enters StateFailed with a typed cause. A
// cancellation is a hangup, not a failure.
func (s *Session) fail(kind FailureKind, err error) {
	if errors.Is(err, context.Canceled) {
		s.teardown(StateEnded, nil)
		return
	}
	s.logger.Error("call: session failed", "kind", kind.String(), "err", err)
	s.teardown(StateFailed, &Failure{Kind: kind, Err: err})
}

// teardown is the single exit routine every path converges on: it stops
// the loop, releases the microphone, sends the end notice (best effort,
// bounded), closes the channel, and closes the backend session. It runs
// at most once per attempt.
func (s *Session) teardown(final State, f *Failure) {
	s.mu.Lock()
	once := s.teardownOnce
	s.mu.Unlock()
	if once == nil {
		return
	}
	once.Do(func() {
		s.mu.Lock()
		cancel := s.loopCancel
		conn := s.conn
		id := s.id
		s.loopCancel = nil
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if final == StateEnded {
			s.setState(StateEnding)
		}

		s.opts.Capture.Release()

		if conn != nil {
			tctx, tcancel := context.WithTimeout(context.Background(), s.teardownTimeout())
			if final == StateEnded {
				if err := conn.Send(tctx, signaling.NewEnd()); err != nil {
					s.logger.Debug("call: end notice not delivered", "err", err)
				}
			}
			tcancel()
			_ = conn.Close()
		}

		if id != "" {
			ectx, ecancel := context.WithTimeout(context.Background(), s.teardownTimeout())
			if err := s.opts.Backend.EndSession(ectx, id); err != nil {
				s.logger.Warn("call: backend session close failed", "session", id, "err", err)
			}
			ecancel()
		}

		s.mu.Lock()
		s.failure = f
		s.speaker = SpeakerNone
		if final == StateEnded {
			s.endedAt = time.Now()
		}
		s.mu.Unlock()

		s.setState(final)
		if final == StateEnded {
			s.complete()
		}
	})
}

func (s *Session) complete() {
	s.completeOnce.Do(func() {
		if s.opts.OnComplete != nil {
			s.opts.OnComplete()
		}
	})
}

// playAbsorbed renders agent audio; a decode or render failure is logged
// and absorbed so the conversation advances to the next capture.
func (s *Session) playAbsorbed(ctx context.Context, audio []byte) {
	if len(audio) == 0 {
		return
	}
	s.setSpeaker(SpeakerAgent)
	defer s.setSpeaker(SpeakerNone)
	if err := s.opts.Player.Play(ctx, audio, downlinkFormat); err != nil && ctx.Err() == nil {
		s.logger.Warn("call: playback failed, continuing", "err", err)
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	if s.state == st {
		s.mu.Unlock()
		return
	}
	s.state = st
	cb := s.opts.OnStateChange
	s.mu.Unlock()

	s.logger.Debug("call: state", "state", st.String())
	if cb != nil {
		cb(st)
	}
}

func (s *Session) setSpeaker(sp Speaker) {
	s.mu.Lock()
	s.speaker = sp
	s.mu.Unlock()
}

func (s *Session) captureWindow() time.Duration {
	if s.opts.CaptureWindow > 0 {
		return s.opts.CaptureWindow
	}
	return DefaultCaptureWindow
}

func (s *Session) teardownTimeout() time.Duration {
	if s.opts.TeardownTimeout > 0 {
		return s.opts.TeardownTimeout
	}
	return DefaultTeardownTimeout
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the typed cause while the session is in the error state,
// else nil.
func (s *Session) Err() *Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// ActiveSpeaker reports who is audible right now: SpeakerUser during a
// capture window, SpeakerAgent during playback, else SpeakerNone.
func (s *Session) ActiveSpeaker() Speaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaker
}

// Transcript returns an ordered snapshot of the transcript.
func (s *Session) Transcript() []Entry {
	return s.transcript.Entries()
}

// ID returns the backend-issued session ID, empty before Start succeeds.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Greeting returns the greeting text issued at session start.
func (s *Session) Greeting() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.greeting
}

// StartedAt returns when the backend session was issued.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// EndedAt returns when the session reached StateEnded.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}
