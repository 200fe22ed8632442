package media

import (
	"testing"
	"time"
)

// Stopping a miniaudio device waits for the audio worker thread, which
// may itself be inside the data callback waiting on the capture mutex.
// Release therefore must not hold the mutex across the stop.
func TestMalgoCapture_ReleaseWithCallbackInFlight(t *testing.T) {
	c := &MalgoCapture{}
	stopEntered := make(chan struct{})
	callbackDone := make(chan struct{})

	c.mu.Lock()
	c.acquired = true
	c.recording = true
	c.stop = func() {
		close(stopEntered)
		select {
		case <-callbackDone:
		case <-time.After(5 * time.Second):
		}
	}
	c.mu.Unlock()

	// The worker delivers one more buffer while the device is stopping.
	go func() {
		<-stopEntered
		c.onData([]byte{1, 2})
		close(callbackDone)
	}()

	released := make(chan struct{})
	go func() {
		c.Release()
		close(released)
	}()

	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("Release blocked with a data callback in flight")
	}

	// Release after teardown stays a no-op.
	c.Release()
}

func TestMalgoCapture_OnDataGatedByRecording(t *testing.T) {
	c := &MalgoCapture{}

	c.onData([]byte{1, 2, 3})
	if len(c.segBuf) != 0 {
		t.Errorf("segBuf = %v; want empty while not recording", c.segBuf)
	}

	c.mu.Lock()
	c.recording = true
	c.mu.Unlock()
	c.onData([]byte{1, 2, 3})
	c.onData([]byte{4})
	if got := len(c.segBuf); got != 4 {
		t.Errorf("segBuf len = %d; want 4", got)
	}
}
