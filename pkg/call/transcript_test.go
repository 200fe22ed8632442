package call

import (
	"sync"
	"testing"
)

func TestTranscript_AppendOrder(t *testing.T) {
	tr := NewTranscript(nil)
	tr.Append(SpeakerAgent, "hello")
	tr.Append(SpeakerUser, "hi")
	tr.Append(SpeakerAgent, "how are you")

	entries := tr.Entries()
	if len(entries) != 3 {
		t.Fatalf("Len = %d; want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Sequence >= entries[i].Sequence {
			t.Errorf("sequence not strictly increasing at %d: %d >= %d",
				i, entries[i-1].Sequence, entries[i].Sequence)
		}
	}
	if entries[0].Speaker != SpeakerAgent || entries[1].Speaker != SpeakerUser {
		t.Errorf("speakers out of order: %v", entries)
	}
}

func TestTranscript_ConcurrentAppend(t *testing.T) {
	tr := NewTranscript(nil)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Append(SpeakerUser, "x")
			}
		}()
	}
	wg.Wait()

	entries := tr.Entries()
	if len(entries) != 1000 {
		t.Fatalf("Len = %d; want 1000", len(entries))
	}
	for i, e := range entries {
		if e.Sequence != i+1 {
			t.Fatalf("entry %d has sequence %d", i, e.Sequence)
		}
	}
}

func TestTranscript_OnAppend(t *testing.T) {
	var got []Entry
	tr := NewTranscript(func(e Entry) { got = append(got, e) })
	tr.Append(SpeakerAgent, "a")
	tr.Append(SpeakerUser, "b")

	if len(got) != 2 || got[0].Text != "a" || got[1].Text != "b" {
		t.Errorf("callback entries = %v", got)
	}
}

func TestTranscript_EntriesIsSnapshot(t *testing.T) {
	tr := NewTranscript(nil)
	tr.Append(SpeakerUser, "one")
	snap := tr.Entries()
	tr.Append(SpeakerUser, "two")
	if len(snap) != 1 {
		t.Errorf("snapshot mutated: %v", snap)
	}
}
