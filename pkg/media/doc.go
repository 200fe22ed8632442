// Package media owns the hardware boundary of a call: microphone capture
// and speaker playback.
//
// [Capture] acquires the microphone once per session and carves timed
// recording segments out of the shared stream. [Player] renders agent
// audio and returns only on audible completion. The session layer drives
// both strictly half-duplex; neither is safe for concurrent segments.
//
// Production implementations are [MalgoCapture] (miniaudio capture via
// gen2brain/malgo) and [OtoPlayer] (ebitengine/oto). Tests substitute
// fakes behind the interfaces.
package media
