package media

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"mime"
	"strings"
)

// DecodePCM extracts raw PCM16 samples from an audio payload.
//
// Supported formats are raw PCM (audio/pcm, audio/l16) and WAV
// containers (audio/wav, audio/x-wav, audio/wave); anything else is a
// *PlaybackError. The gateway negotiates PCM on both directions, so no
// compressed codecs are handled here.
func DecodePCM(audio []byte, format string) ([]byte, error) {
	mediaType := format
	if parsed, _, err := mime.ParseMediaType(format); err == nil {
		mediaType = parsed
	}

	switch strings.ToLower(mediaType) {
	case "", "audio/pcm", "audio/l16":
		return audio, nil
	case "audio/wav", "audio/x-wav", "audio/wave":
		return wavData(audio)
	default:
		return nil, &PlaybackError{Err: fmt.Errorf("unsupported audio format %q", format)}
	}
}

// wavData returns the data chunk of a RIFF/WAVE container.
func wavData(b []byte) ([]byte, error) {
	if len(b) < 12 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return nil, &PlaybackError{Err: fmt.Errorf("not a wav container")}
	}

	// Walk the chunk list looking for "data".
	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		if body+size > len(b) {
			return nil, &PlaybackError{Err: fmt.Errorf("truncated wav chunk %q", id)}
		}
		if id == "data" {
			return b[body : body+size], nil
		}
		// Chunks are word-aligned.
		off = body + size + (size & 1)
	}
	return nil, &PlaybackError{Err: fmt.Errorf("wav container has no data chunk")}
}
