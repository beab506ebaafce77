package metrics

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var bucketCounters = []byte("counters")

// CounterStore persists per-label subject counts across restarts.
// Counts are floored at zero: a decrement of an absent or zero counter
// is a no-op, never a negative value. Values are mirrored into the
// aeon_labels_active gauge.
type CounterStore struct {
	mu sync.Mutex
	db *bolt.DB
}

// NewCounterStore opens (or creates) the counter database in dataDir and
// restores the gauge from persisted values.
func NewCounterStore(dataDir string) (*CounterStore, error) {
	dbPath := filepath.Join(dataDir, "counters.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open counter database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCounters)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create counters bucket: %w", err)
	}

	s := &CounterStore{db: db}

	// Restore the gauge from persisted state
	counts, err := s.All()
	if err != nil {
		db.Close()
		return nil, err
	}
	for label, count := range counts {
		LabelsActive.WithLabelValues(label).Set(float64(count))
	}

	return s, nil
}

// Close closes the database
func (s *CounterStore) Close() error {
	return s.db.Close()
}

func (s *CounterStore) adjust(label string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		var current int64
		if data := b.Get([]byte(label)); data != nil {
			if len(data) != 8 {
				return fmt.Errorf("corrupt counter value for %q", label)
			}
			current = int64(binary.BigEndian.Uint64(data))
		}
		updated = current + delta
		if updated < 0 {
			updated = 0
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(updated))
		return b.Put([]byte(label), buf[:])
	})
	if err != nil {
		return err
	}

	LabelsActive.WithLabelValues(label).Set(float64(updated))
	return nil
}

// Inc increments the count for label
func (s *CounterStore) Inc(label string) error {
	return s.adjust(label, 1)
}

// Dec decrements the count for label, floored at zero
func (s *CounterStore) Dec(label string) error {
	return s.adjust(label, -1)
}

// Get returns the current count for label
func (s *CounterStore) Get(label string) (int64, error) {
	var count int64
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCounters).Get([]byte(label))
		if data == nil {
			return nil
		}
		if len(data) != 8 {
			return fmt.Errorf("corrupt counter value for %q", label)
		}
		count = int64(binary.BigEndian.Uint64(data))
		return nil
	})
	return count, err
}

// All returns every persisted counter
func (s *CounterStore) All() (map[string]int64, error) {
	counts := make(map[string]int64)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCounters).ForEach(func(k, v []byte) error {
			if len(v) != 8 {
				return fmt.Errorf("corrupt counter value for %q", k)
			}
			counts[string(k)] = int64(binary.BigEndian.Uint64(v))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// Reset zeroes every counter
func (s *CounterStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var labels []string
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		if err := b.ForEach(func(k, _ []byte) error {
			labels = append(labels, string(k))
			return nil
		}); err != nil {
			return err
		}
		for _, label := range labels {
			if err := b.Delete([]byte(label)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, label := range labels {
		LabelsActive.WithLabelValues(label).Set(0)
	}
	return nil
}
