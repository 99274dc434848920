package assets

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no asset has the requested id.
var ErrNotFound = errors.New("asset not found")

// Record is the read-only view of a stored asset the generator needs.
type Record struct {
	ID          string
	Name        string
	Kind        string
	TextContent string
}

// Store looks up asset records. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
}

// Resolve fetches every id in order, skipping ids that do not exist. The returned
// slice lists the skipped ids so callers can report them.
func Resolve(ctx context.Context, s Store, ids []string) ([]Record, []string, error) {
	var (
		out     []Record
		missing []string
	)
	for _, id := range ids {
		if id == "" {
			continue
		}
		rec, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		out = append(out, rec)
	}
	return out, missing, nil
}

// MemoryStore keeps records in a map.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Record
}

func NewMemoryStore(records ...Record) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]Record, len(records))}
	for _, r := range records {
		s.byID[r.ID] = r
	}
	return s
}

func (s *MemoryStore) Put(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[r.ID] = r
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}
