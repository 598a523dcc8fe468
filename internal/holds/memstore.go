package holds

import (
	"context"
	"sync"
	"time"

	"stayalloc/internal/domain"
)

// MemoryStore is a mutex-guarded HoldStore for single-process deployments
// and tests. Expired holds are skipped lazily on every read and removed
// by SweepExpired.
type MemoryStore struct {
	mu    sync.Mutex
	holds map[string]domain.Hold
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{holds: make(map[string]domain.Hold)}
}

func (s *MemoryStore) PutIfFree(ctx context.Context, h domain.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.holds {
		if ex.RoomID == h.RoomID && !ex.Expired(h.CreatedAt) && ex.Range.Overlaps(h.Range) {
			return domain.ErrHoldConflict
		}
	}
	s.holds[h.ID] = h
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, holdID string) (domain.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[holdID]
	if !ok {
		return domain.Hold{}, domain.ErrNotFound
	}
	return h, nil
}

func (s *MemoryStore) Delete(ctx context.Context, holdID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holds[holdID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.holds, holdID)
	return nil
}

func (s *MemoryStore) HeldRooms(ctx context.Context, roomIDs []int64, rng domain.DateRange, now time.Time) (map[int64]bool, error) {
	want := make(map[int64]bool, len(roomIDs))
	for _, id := range roomIDs {
		want[id] = true
	}
	held := make(map[int64]bool)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.holds {
		if want[h.RoomID] && !h.Expired(now) && h.Range.Overlaps(rng) {
			held[h.RoomID] = true
		}
	}
	return held, nil
}

func (s *MemoryStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, h := range s.holds {
		if h.Expired(now) {
			delete(s.holds, id)
			n++
		}
	}
	return n, nil
}
