package media

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrBusy is returned when a second capture segment or playback is
// requested while one is still in flight.
var ErrBusy = errors.New("media: operation already in progress")

// ErrNotAcquired is returned by CaptureSegment before Acquire succeeds.
var ErrNotAcquired = errors.New("media: microphone not acquired")

// Segment is the audio produced by one capture window.
type Segment struct {
	Bytes      []byte
	Format     string // mime type, e.g. "audio/pcm;rate=16000"
	CapturedAt time.Time
}

// Duration returns the audible length of a PCM16 mono segment at the
// given sample rate.
func (s *Segment) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 || len(s.Bytes) == 0 {
		return 0
	}
	samples := len(s.Bytes) / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// Capture owns microphone acquisition and timed recording segments.
type Capture interface {
	// Acquire obtains the microphone stream. Called once per session;
	// the stream is reused across all segments until Release.
	Acquire(ctx context.Context) error

	// CaptureSegment records one segment from the shared stream,
	// resolving when maxDur elapses or ctx is canceled. The recorder is
	// stopped on every exit path.
	CaptureSegment(ctx context.Context, maxDur time.Duration) (*Segment, error)

	// Release stops the stream and frees the device. Idempotent.
	Release()
}

// Player decodes and renders agent audio.
type Player interface {
	// Play renders audio to completion. Concurrent calls are rejected
	// with ErrBusy; the caller awaits completion before the next
	// playback or capture.
	Play(ctx context.Context, audio []byte, format string) error

	// Close frees the output device.
	Close() error
}

// PermissionError reports that microphone access was denied or the
// device is unavailable. Not retryable without user action.
type PermissionError struct {
	Err error
}

// Error implements the error interface.
func (e *PermissionError) Error() string {
	return fmt.Sprintf("media: microphone access denied: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *PermissionError) Unwrap() error { return e.Err }

// IsPermission reports whether err is a microphone permission failure.
func IsPermission(err error) bool {
	var perr *PermissionError
	return errors.As(err, &perr)
}

// CaptureError reports a capture failure other than permission denial.
// Retryable.
type CaptureError struct {
	Err error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	return fmt.Sprintf("media: capture failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *CaptureError) Unwrap() error { return e.Err }

// PlaybackError reports a decode or render failure. The session absorbs
// these rather than aborting an otherwise healthy call.
type PlaybackError struct {
	Err error
}

// Error implements the error interface.
func (e *PlaybackError) Error() string {
	return fmt.Sprintf("media: playback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *PlaybackError) Unwrap() error { return e.Err }
