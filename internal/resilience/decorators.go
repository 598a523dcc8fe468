package resilience

import (
	"context"
	"time"

	"stayalloc/internal/domain"
)

// GuardInventory wraps an InventoryRepository so every call runs under the
// same guard. The engine depends on the port either way; wiring decides
// whether calls are guarded.
func GuardInventory(inner domain.InventoryRepository, g *Guard) domain.InventoryRepository {
	return &guardedInventory{inner: inner, g: g}
}

type guardedInventory struct {
	inner domain.InventoryRepository
	g     *Guard
}

func (r *guardedInventory) GetRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	return Execute(ctx, r.g, "get_room", func(ctx context.Context) (domain.Room, error) {
		return r.inner.GetRoom(ctx, roomID)
	})
}

func (r *guardedInventory) ListRooms(ctx context.Context, propertyID int64) ([]domain.Room, error) {
	return Execute(ctx, r.g, "list_rooms", func(ctx context.Context) ([]domain.Room, error) {
		return r.inner.ListRooms(ctx, propertyID)
	})
}

func (r *guardedInventory) GetRoomType(ctx context.Context, roomTypeID int64) (domain.RoomType, error) {
	return Execute(ctx, r.g, "get_room_type", func(ctx context.Context) (domain.RoomType, error) {
		return r.inner.GetRoomType(ctx, roomTypeID)
	})
}

func (r *guardedInventory) ListRoomTypes(ctx context.Context, propertyID int64) ([]domain.RoomType, error) {
	return Execute(ctx, r.g, "list_room_types", func(ctx context.Context) ([]domain.RoomType, error) {
		return r.inner.ListRoomTypes(ctx, propertyID)
	})
}

func (r *guardedInventory) UpdateRoomStatus(ctx context.Context, roomID int64, status domain.RoomStatus) error {
	return r.g.Do(ctx, "update_room_status", func(ctx context.Context) error {
		return r.inner.UpdateRoomStatus(ctx, roomID, status)
	})
}

func (r *guardedInventory) ListBookings(ctx context.Context, propertyID int64, rng domain.DateRange) ([]domain.Booking, error) {
	return Execute(ctx, r.g, "list_bookings", func(ctx context.Context) ([]domain.Booking, error) {
		return r.inner.ListBookings(ctx, propertyID, rng)
	})
}

func (r *guardedInventory) GetPricingConfig(ctx context.Context, roomTypeID int64) (domain.PricingConfig, error) {
	return Execute(ctx, r.g, "get_pricing_config", func(ctx context.Context) (domain.PricingConfig, error) {
		return r.inner.GetPricingConfig(ctx, roomTypeID)
	})
}

// GuardHoldStore wraps a HoldStore. PutIfFree conflicts pass through the
// guard unretried; retrying a lost race would only lose it again.
func GuardHoldStore(inner domain.HoldStore, g *Guard) domain.HoldStore {
	return &guardedHoldStore{inner: inner, g: g}
}

type guardedHoldStore struct {
	inner domain.HoldStore
	g     *Guard
}

func (s *guardedHoldStore) PutIfFree(ctx context.Context, h domain.Hold) error {
	return s.g.Do(ctx, "put_if_free", func(ctx context.Context) error {
		return s.inner.PutIfFree(ctx, h)
	})
}

func (s *guardedHoldStore) Get(ctx context.Context, holdID string) (domain.Hold, error) {
	return Execute(ctx, s.g, "get_hold", func(ctx context.Context) (domain.Hold, error) {
		return s.inner.Get(ctx, holdID)
	})
}

func (s *guardedHoldStore) Delete(ctx context.Context, holdID string) error {
	return s.g.Do(ctx, "delete_hold", func(ctx context.Context) error {
		return s.inner.Delete(ctx, holdID)
	})
}

func (s *guardedHoldStore) HeldRooms(ctx context.Context, roomIDs []int64, rng domain.DateRange, now time.Time) (map[int64]bool, error) {
	return Execute(ctx, s.g, "held_rooms", func(ctx context.Context) (map[int64]bool, error) {
		return s.inner.HeldRooms(ctx, roomIDs, rng, now)
	})
}

func (s *guardedHoldStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return Execute(ctx, s.g, "sweep_expired", func(ctx context.Context) (int, error) {
		return s.inner.SweepExpired(ctx, now)
	})
}
