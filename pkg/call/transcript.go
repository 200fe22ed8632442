package call

import (
	"sync"

	"github.com/bobokit/voicecall/pkg/jsontime"
)

// Speaker identifies who produced a transcript entry or who is audible
// right now.
type Speaker string

const (
	SpeakerNone  Speaker = ""
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// Entry is one utterance in the call transcript.
type Entry struct {
	Speaker  Speaker        `json:"speaker" msgpack:"speaker"`
	Text     string         `json:"text" msgpack:"text"`
	Sequence int            `json:"sequence" msgpack:"sequence"`
	Time     jsontime.Milli `json:"t" msgpack:"t"`
}

// Transcript is the ordered append-only record of exchanged utterances.
// Appends happen in arrival order only; sequence numbers are strictly
// increasing.
type Transcript struct {
	mu       sync.Mutex
	entries  []Entry
	onAppend func(Entry)
}

// NewTranscript creates a transcript. onAppend, if non-nil, is invoked
// for every appended entry, in order.
func NewTranscript(onAppend func(Entry)) *Transcript {
	return &Transcript{onAppend: onAppend}
}

// Append records one utterance and returns the entry.
func (t *Transcript) Append(speaker Speaker, text string) Entry {
	t.mu.Lock()
	entry := Entry{
		Speaker:  speaker,
		Text:     text,
		Sequence: len(t.entries) + 1,
		Time:     jsontime.Now(),
	}
	t.entries = append(t.entries, entry)
	cb := t.onAppend
	t.mu.Unlock()

	if cb != nil {
		cb(entry)
	}
	return entry
}

// Entries returns a snapshot copy in order.
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
