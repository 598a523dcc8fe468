package holds_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"stayalloc/internal/domain"
	"stayalloc/internal/holds"
)

func stay(t *testing.T, ci, co string) domain.DateRange {
	t.Helper()
	parse := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return d
	}
	r, err := domain.NewDateRange(parse(ci), parse(co))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return r
}

func room(id int64) domain.Room {
	return domain.Room{ID: id, PropertyID: 7, RoomTypeID: 1, Status: domain.StatusAvailable}
}

func TestCreate_ConflictOnOverlap(t *testing.T) {
	m := holds.NewManager(holds.NewMemoryStore(), 5*time.Minute)
	ctx := context.Background()

	if _, err := m.Create(ctx, room(1), stay(t, "2026-05-01", "2026-05-04"), "alice"); err != nil {
		t.Fatalf("first hold: %v", err)
	}

	// overlapping range on the same room loses
	_, err := m.Create(ctx, room(1), stay(t, "2026-05-03", "2026-05-06"), "bob")
	if !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// back-to-back range is fine
	if _, err := m.Create(ctx, room(1), stay(t, "2026-05-04", "2026-05-06"), "bob"); err != nil {
		t.Fatalf("adjacent hold: %v", err)
	}

	// other rooms are unaffected
	if _, err := m.Create(ctx, room(2), stay(t, "2026-05-01", "2026-05-04"), "bob"); err != nil {
		t.Fatalf("other room: %v", err)
	}
}

func TestCreate_ConcurrentRace_ExactlyOneWins(t *testing.T) {
	m := holds.NewManager(holds.NewMemoryStore(), 5*time.Minute)
	rng := stay(t, "2026-05-01", "2026-05-03")

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Create(context.Background(), room(1), rng, "racer")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case domain.IsKind(err, domain.KindConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners: %d", wins)
	}
}

func TestExpiry_LazyAtReadTime(t *testing.T) {
	store := holds.NewMemoryStore()
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := holds.NewManager(store, 5*time.Minute).WithClock(clock)
	rng := stay(t, "2026-06-01", "2026-06-03")

	h, err := m.Create(context.Background(), room(1), rng, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !h.ExpiresAt.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("expiry: %v", h.ExpiresAt)
	}

	// at exactly ExpiresAt the hold is still usable
	held, err := store.HeldRooms(context.Background(), []int64{1}, rng, h.ExpiresAt)
	if err != nil {
		t.Fatalf("held: %v", err)
	}
	if !held[1] {
		t.Fatal("hold dropped before expiry")
	}

	// one instant later it is void
	held, err = store.HeldRooms(context.Background(), []int64{1}, rng, h.ExpiresAt.Add(time.Nanosecond))
	if err != nil {
		t.Fatalf("held: %v", err)
	}
	if held[1] {
		t.Fatal("expired hold still counted")
	}
}

func TestConfirm_RejectsExpired(t *testing.T) {
	store := holds.NewMemoryStore()
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	m := holds.NewManager(store, 5*time.Minute).WithClock(func() time.Time { return now })

	h, err := m.Create(context.Background(), room(1), stay(t, "2026-06-01", "2026-06-03"), "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now = now.Add(6 * time.Minute)
	if _, err := m.Confirm(context.Background(), h.ID); err != domain.ErrHoldExpired {
		t.Fatalf("expected ErrHoldExpired, got %v", err)
	}
}

func TestConfirm_RemovesHold(t *testing.T) {
	store := holds.NewMemoryStore()
	m := holds.NewManager(store, 5*time.Minute)
	rng := stay(t, "2026-06-01", "2026-06-03")

	h, err := m.Create(context.Background(), room(1), rng, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := m.Confirm(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.ID != h.ID || got.RoomID != 1 {
		t.Fatalf("confirmed hold: %+v", got)
	}
	if _, err := store.Get(context.Background(), h.ID); err != domain.ErrNotFound {
		t.Fatalf("hold should be gone, got %v", err)
	}
}

func TestRelease_IsIdempotent(t *testing.T) {
	m := holds.NewManager(holds.NewMemoryStore(), 5*time.Minute)
	h, err := m.Create(context.Background(), room(1), stay(t, "2026-06-01", "2026-06-03"), "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Release(context.Background(), h.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := m.Release(context.Background(), h.ID); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	store := holds.NewMemoryStore()
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	m := holds.NewManager(store, 5*time.Minute).WithClock(func() time.Time { return now })

	if _, err := m.Create(context.Background(), room(1), stay(t, "2026-06-01", "2026-06-03"), "a"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Create(context.Background(), room(2), stay(t, "2026-06-01", "2026-06-03"), "b"); err != nil {
		t.Fatalf("create: %v", err)
	}

	now = now.Add(10 * time.Minute)
	n, err := m.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("evicted: %d", n)
	}
	n, err = m.SweepExpired(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("second sweep: %d, %v", n, err)
	}
}
