package history_test

import (
	"errors"
	"testing"
	"time"

	"github.com/bobokit/voicecall/pkg/call"
	"github.com/bobokit/voicecall/pkg/history"
	"github.com/bobokit/voicecall/pkg/jsontime"
)

// newStore creates an in-memory store for testing.
func newStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(history.Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(id string, startedAt time.Time) *history.Record {
	return &history.Record{
		SessionID: id,
		StartedAt: jsontime.Milli(startedAt),
		EndedAt:   jsontime.Milli(startedAt.Add(time.Minute)),
		Entries: []call.Entry{
			{Speaker: call.SpeakerAgent, Text: "Hi! Let's talk about your day", Sequence: 1, Time: jsontime.Milli(startedAt)},
			{Speaker: call.SpeakerUser, Text: "Hello Bobo", Sequence: 2, Time: jsontime.Milli(startedAt.Add(5 * time.Second))},
		},
	}
}

func TestStore_SaveGet(t *testing.T) {
	s := newStore(t)
	rec := record("sess-1", time.Now())

	if err := s.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Get("sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SessionID != "sess-1" || len(got.Entries) != 2 {
		t.Errorf("Get = %+v", got)
	}
	if got.Entries[1].Speaker != call.SpeakerUser || got.Entries[1].Text != "Hello Bobo" {
		t.Errorf("entry round trip: %+v", got.Entries[1])
	}
	if got.Entries[0].Sequence != 1 || got.Entries[1].Sequence != 2 {
		t.Errorf("sequence round trip: %+v", got.Entries)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	s := newStore(t)
	if _, err := s.Get("nope"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("Get unknown = %v; want ErrNotFound", err)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newStore(t)
	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		if err := s.Save(record(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	recs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("List len = %d; want 3", len(recs))
	}
	want := []string{"new", "mid", "old"}
	for i, rec := range recs {
		if rec.SessionID != want[i] {
			t.Errorf("List[%d] = %s; want %s", i, rec.SessionID, want[i])
		}
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	s := newStore(t)
	rec := record("sess-1", time.Now())
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec.Entries = rec.Entries[:1]
	if err := s.Save(rec); err != nil {
		t.Fatalf("re-Save: %v", err)
	}
	got, err := s.Get("sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Errorf("entries after replace = %d; want 1", len(got.Entries))
	}
}

func TestStore_Delete(t *testing.T) {
	s := newStore(t)
	if err := s.Save(record("sess-1", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete("sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("sess-1"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("Get after delete = %v; want ErrNotFound", err)
	}
	// Unknown ID is not an error.
	if err := s.Delete("missing"); err != nil {
		t.Errorf("Delete unknown = %v; want nil", err)
	}
}

func TestStore_SaveRequiresSessionID(t *testing.T) {
	s := newStore(t)
	if err := s.Save(&history.Record{}); err == nil {
		t.Error("Save without session id succeeded")
	}
}

func TestStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := history.Open(history.Options{Dir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(record("sess-disk", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(history.Options{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get("sess-disk"); err != nil {
		t.Errorf("Get after reopen: %v", err)
	}
}
