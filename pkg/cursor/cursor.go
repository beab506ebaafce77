package cursor

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/ovnanova/aeon/pkg/log"
)

var (
	bucketCursor = []byte("cursor")
	keyPosition  = []byte("position")
)

// Store persists the resumable feed position: a monotonically
// nondecreasing microseconds-since-epoch value. It is written on an
// interval, not per event, to bound write amplification.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) the cursor database in dataDir
func NewStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "cursor.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCursor)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cursor bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the persisted position. The second return is false when no
// cursor exists yet; the caller seeds to "now" rather than replaying the
// full feed history.
func (s *Store) Load() (int64, bool, error) {
	var pos int64
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCursor).Get(keyPosition)
		if data == nil {
			return nil
		}
		if len(data) != 8 {
			return fmt.Errorf("corrupt cursor value: %d bytes", len(data))
		}
		pos = int64(binary.BigEndian.Uint64(data))
		found = true
		return nil
	})
	return pos, found, err
}

// Save persists the position
func (s *Store) Save(pos int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(pos))
		return tx.Bucket(bucketCursor).Put(keyPosition, buf[:])
	})
}

// Source reports the current feed position, typically the connection
// supervisor.
type Source interface {
	Cursor() int64
}

// Saver persists a position source on a fixed interval, with a
// best-effort final save on Stop.
type Saver struct {
	store    *Store
	source   Source
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	logger   zerolog.Logger
}

// NewSaver creates a periodic cursor saver
func NewSaver(store *Store, source Source, interval time.Duration) *Saver {
	return &Saver{
		store:    store,
		source:   source,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   log.WithComponent("cursor"),
	}
}

// Start begins the save loop
func (s *Saver) Start() {
	go s.run()
}

// Stop halts the loop and performs a final save
func (s *Saver) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Saver) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.save()
		case <-s.stopCh:
			s.save()
			return
		}
	}
}

func (s *Saver) save() {
	pos := s.source.Cursor()
	if pos == 0 {
		return
	}
	if err := s.store.Save(pos); err != nil {
		s.logger.Error().Err(err).Int64("position", pos).Msg("failed to save cursor")
		return
	}
	s.logger.Debug().Int64("position", pos).Msg("cursor saved")
}
