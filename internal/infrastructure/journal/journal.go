// Package journal persists committed ledger events locally until they are
// flushed to durable storage. It keeps the ledger available while postgres or
// redis are unreachable: events wait in a bbolt file and drain in sequence
// order once the collaborators recover.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/clearfund/backend/domain"
)

// Store wraps bbolt to persist pending events keyed by ledger sequence, so a
// cursor walk yields them oldest first.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the bbolt file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "journal"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Enqueue stores a pending event. Re-enqueueing the same sequence overwrites
// the previous copy, which is harmless because events are immutable.
func (s *Store) Enqueue(ev domain.Event) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(seqKey(ev.Sequence), payload)
	})
}

// GetBatch returns up to limit pending events in sequence order without
// removing them.
func (s *Store) GetBatch(limit int) ([]domain.Event, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var events []domain.Event
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(events) < limit; k, v = c.Next() {
			var ev domain.Event
			if err := json.Unmarshal(v, &ev); err != nil {
				continue
			}
			events = append(events, ev)
		}
		return nil
	})
	return events, err
}

// Remove deletes the event with the given sequence after a successful flush.
func (s *Store) Remove(sequence uint64) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(seqKey(sequence))
	})
}

// Size returns the number of pending events.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the bbolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes bbolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

func seqKey(sequence uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, sequence)
	return key
}
