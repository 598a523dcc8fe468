package domain

import (
	"context"
	"time"
)

// InventoryRepository is the engine's read window onto rooms, room types,
// confirmed bookings and pricing rules, plus the one status write exposed
// to housekeeping workflows.
type InventoryRepository interface {
	GetRoom(ctx context.Context, roomID int64) (Room, error)
	ListRooms(ctx context.Context, propertyID int64) ([]Room, error)
	GetRoomType(ctx context.Context, roomTypeID int64) (RoomType, error)
	ListRoomTypes(ctx context.Context, propertyID int64) ([]RoomType, error)
	UpdateRoomStatus(ctx context.Context, roomID int64, status RoomStatus) error

	// ListBookings returns confirmed bookings for the property whose date
	// ranges overlap rng.
	ListBookings(ctx context.Context, propertyID int64, rng DateRange) ([]Booking, error)

	GetPricingConfig(ctx context.Context, roomTypeID int64) (PricingConfig, error)
}

// HoldStore is the only mutable shared state in the engine. PutIfFree must
// be atomic: it fails with ErrHoldConflict when any active hold overlaps
// the same room and range. Expired holds never count, whether the store
// evicts them eagerly or skips them lazily on read.
type HoldStore interface {
	PutIfFree(ctx context.Context, h Hold) error
	Get(ctx context.Context, holdID string) (Hold, error)
	Delete(ctx context.Context, holdID string) error

	// HeldRooms reports which of the given rooms have an active hold
	// overlapping rng at the given instant.
	HeldRooms(ctx context.Context, roomIDs []int64, rng DateRange, now time.Time) (map[int64]bool, error)

	// SweepExpired evicts stale holds, returning how many were removed.
	// Stores that expire entries natively may report zero.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// Cache is a TTL'd read-through cache for pricing configuration.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
