// Package holds manages short-lived soft reservations on rooms. The store
// behind the Manager is the only mutable shared state in the engine.
package holds

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"stayalloc/internal/adapters/observability"
	"stayalloc/internal/domain"
)

// DefaultTTL is the hold lifetime unless configured otherwise.
const DefaultTTL = 5 * time.Minute

type Manager struct {
	store domain.HoldStore
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store domain.HoldStore, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// WithClock overrides the manager clock. Tests only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Create places a hold on the room for the range. The store write is
// conditional: when a concurrent caller already holds an overlapping
// range, the attempt fails with a conflict and no state is left behind.
func (m *Manager) Create(ctx context.Context, room domain.Room, rng domain.DateRange, requestedBy string) (domain.Hold, error) {
	now := m.now()
	h := domain.Hold{
		ID:          uuid.NewString(),
		RoomID:      room.ID,
		PropertyID:  room.PropertyID,
		Range:       rng,
		RequestedBy: requestedBy,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}
	if err := m.store.PutIfFree(ctx, h); err != nil {
		if errors.Is(err, domain.ErrHoldConflict) {
			observability.ObserveHold("conflict")
			return domain.Hold{}, domain.NewConflict("room already held for an overlapping range", err)
		}
		return domain.Hold{}, err
	}
	observability.ObserveHold("create")
	return h, nil
}

// Release cancels a hold explicitly. Releasing an unknown or already
// expired hold is not an error.
func (m *Manager) Release(ctx context.Context, holdID string) error {
	if err := m.store.Delete(ctx, holdID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	observability.ObserveHold("release")
	return nil
}

// Confirm re-validates the hold for the booking-creation workflow and
// removes it so the room frees up the instant the booking row lands.
// An expired hold is rejected even if the store has not evicted it yet.
func (m *Manager) Confirm(ctx context.Context, holdID string) (domain.Hold, error) {
	h, err := m.store.Get(ctx, holdID)
	if err != nil {
		return domain.Hold{}, err
	}
	if h.Expired(m.now()) {
		_ = m.store.Delete(ctx, holdID)
		observability.ObserveHold("expire")
		return domain.Hold{}, domain.ErrHoldExpired
	}
	if err := m.store.Delete(ctx, holdID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Hold{}, err
	}
	observability.ObserveHold("confirm")
	return h, nil
}

// SweepExpired evicts stale holds. Correctness never depends on the sweep
// running; expiry is honored lazily on every read path.
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	n, err := m.store.SweepExpired(ctx, m.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Debug().Int("evicted", n).Msg("expired holds swept")
		for i := 0; i < n; i++ {
			observability.ObserveHold("expire")
		}
	}
	return n, nil
}
