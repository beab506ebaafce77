package labelstore

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store used by tests and as the reference
// implementation of the adapter contract. It records call counts so
// tests can assert that an operation performed zero store mutations.
type MemStore struct {
	mu   sync.Mutex
	rows map[string][]Record // subject -> rows, oldest-first

	// Call counters, guarded by mu
	QueryCalls  int
	CreateCalls int

	// FailCreates forces creation calls to fail with this error
	FailCreates error

	// FailQueries forces query calls to fail with this error
	FailQueries error
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string][]Record)}
}

func (s *MemStore) QueryLabels(ctx context.Context, subject string, vals []string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QueryCalls++

	if s.FailQueries != nil {
		return nil, s.FailQueries
	}

	var wanted map[string]bool
	if len(vals) > 0 {
		wanted = make(map[string]bool, len(vals))
		for _, v := range vals {
			wanted[v] = true
		}
	}

	rows := s.rows[subject]
	var out []Record
	for i := len(rows) - 1; i >= 0; i-- {
		if wanted != nil && !wanted[rows[i].Val] {
			continue
		}
		out = append(out, rows[i])
	}
	return out, nil
}

func (s *MemStore) CreateLabel(ctx context.Context, rec Record) error {
	return s.CreateLabels(ctx, []Record{rec})
}

func (s *MemStore) CreateLabels(ctx context.Context, recs []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	if s.FailCreates != nil {
		return s.FailCreates
	}
	for _, rec := range recs {
		s.rows[rec.URI] = append(s.rows[rec.URI], rec)
	}
	return nil
}

func (s *MemStore) Close() error {
	return nil
}

// ResetCounts zeroes the call counters
func (s *MemStore) ResetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QueryCalls = 0
	s.CreateCalls = 0
}
