package labelstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var bucketLabels = []byte("labels")

// BoltStore implements Store on a local BoltDB file. Rows are keyed by
// subject URI plus a monotonic sequence, so a prefix scan yields the
// subject's full history in insertion order.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the label log in dataDir
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "labels.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open label database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLabels)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create labels bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// rowKey is uri + 0x00 + big-endian sequence. URIs never contain NUL, so
// the separator keeps prefix scans exact.
func rowKey(uri string, seq uint64) []byte {
	key := make([]byte, 0, len(uri)+9)
	key = append(key, uri...)
	key = append(key, 0x00)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return append(key, buf[:]...)
}

func (s *BoltStore) CreateLabel(ctx context.Context, rec Record) error {
	return s.CreateLabels(ctx, []Record{rec})
}

func (s *BoltStore) CreateLabels(ctx context.Context, recs []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLabels)
		for _, rec := range recs {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put(rowKey(rec.URI, seq), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) QueryLabels(ctx context.Context, subject string, vals []string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var wanted map[string]bool
	if len(vals) > 0 {
		wanted = make(map[string]bool, len(vals))
		for _, v := range vals {
			wanted[v] = true
		}
	}

	prefix := append([]byte(subject), 0x00)
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketLabels).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt label row %q: %w", k, err)
			}
			if wanted != nil && !wanted[rec.Val] {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Rows are stored oldest-first; callers expect newest-first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
