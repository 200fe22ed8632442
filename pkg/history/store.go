// Package history persists completed call records locally so past
// conversations can be listed and reread.
package history

import (
	"errors"
	"fmt"
	"log"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bobokit/voicecall/pkg/call"
	"github.com/bobokit/voicecall/pkg/jsontime"
)

// ErrNotFound is returned by Get for an unknown session ID.
var ErrNotFound = errors.New("history: record not found")

// keyPrefix namespaces call records in the store.
const keyPrefix = "records/"

// Record is one completed (or failed) call.
type Record struct {
	SessionID string         `json:"session_id" msgpack:"session_id"`
	StartedAt jsontime.Milli `json:"started_at" msgpack:"started_at"`
	EndedAt   jsontime.Milli `json:"ended_at" msgpack:"ended_at"`
	Entries   []call.Entry   `json:"entries" msgpack:"entries"`
}

// Options configures a Store.
type Options struct {
	// Dir is the directory for data files. Required unless InMemory.
	Dir string

	// InMemory runs the store without disk persistence. For tests.
	InMemory bool
}

// Store is a call-record store backed by BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) a store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("history: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(quietLogger{})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("history: open store: %w", err)
	}
	return &Store{db: db}, nil
}

// Save writes one record, replacing any record with the same session ID.
func (s *Store) Save(rec *Record) error {
	if rec.SessionID == "" {
		return errors.New("history: record has no session id")
	}
	val, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: encode record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+rec.SessionID), val)
	})
}

// Get reads one record by session ID.
func (s *Store) Get(sessionID string) (*Record, error) {
	var rec *Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + sessionID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec = new(Record)
			return msgpack.Unmarshal(val, rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("history: read record: %w", err)
	}
	return rec, nil
}

// List returns all records, newest first.
func (s *Store) List() ([]*Record, error) {
	var recs []*Record
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(iterOpts.Prefix); it.ValidForPrefix(iterOpts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec := new(Record)
				if err := msgpack.Unmarshal(val, rec); err != nil {
					return err
				}
				recs = append(recs, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history: list records: %w", err)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[j].StartedAt.Before(recs[i].StartedAt)
	})
	return recs, nil
}

// Delete removes one record. Deleting an unknown ID is not an error.
func (s *Store) Delete(sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + sessionID))
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// quietLogger suppresses badger's info and debug chatter.
type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...interface{})   { log.Printf("[history] ERROR: "+f, v...) }
func (quietLogger) Warningf(f string, v ...interface{}) { log.Printf("[history] WARN: "+f, v...) }
func (quietLogger) Infof(string, ...interface{})        {}
func (quietLogger) Debugf(string, ...interface{})       {}
