// Package availability answers which rooms are free for a stay and
// aggregates occupancy. Reads run lockless over repository snapshots;
// a few seconds of staleness is acceptable against the 5-minute hold TTL.
package availability

import (
	"context"
	"time"

	"stayalloc/internal/domain"
)

type Index struct {
	repo  domain.InventoryRepository
	holds domain.HoldStore
	now   func() time.Time
}

func NewIndex(repo domain.InventoryRepository, holds domain.HoldStore) *Index {
	return &Index{repo: repo, holds: holds, now: time.Now}
}

// WithClock overrides the index clock. Tests only.
func (ix *Index) WithClock(now func() time.Time) *Index {
	ix.now = now
	return ix
}

// Candidate is a free room joined with its type.
type Candidate struct {
	Room     domain.Room
	RoomType domain.RoomType
}

// AvailableRooms returns every room of the property that can host the stay:
// status in service, type occupancy covers the guest count, no overlapping
// confirmed booking, no overlapping active hold, and every supplied
// preference satisfied, hard and soft alike; relaxed searches pass
// prefs.Hard() instead.
func (ix *Index) AvailableRooms(ctx context.Context, propertyID int64, rng domain.DateRange, guests int, prefs *domain.Preferences) ([]Candidate, error) {
	rooms, err := ix.repo.ListRooms(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	types, err := ix.typesByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	booked, err := ix.bookedRooms(ctx, propertyID, rng)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	held, err := ix.holds.HeldRooms(ctx, ids, rng, ix.now())
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, r := range rooms {
		rt, ok := types[r.RoomTypeID]
		if !ok {
			continue
		}
		if !r.Status.Bookable() || rt.MaxOccupancy < guests {
			continue
		}
		if booked[r.ID] || held[r.ID] {
			continue
		}
		if prefs != nil && !matches(r, rt, *prefs) {
			continue
		}
		out = append(out, Candidate{Room: r, RoomType: rt})
	}
	return out, nil
}

func matches(r domain.Room, rt domain.RoomType, p domain.Preferences) bool {
	if p.RoomTypeID != nil && rt.ID != *p.RoomTypeID {
		return false
	}
	if p.Accessible && !r.Accessible {
		return false
	}
	if p.Floor != nil && r.Floor != *p.Floor {
		return false
	}
	if p.Wing != nil && r.Wing != *p.Wing {
		return false
	}
	if !r.HasAmenities(p.Amenities) {
		return false
	}
	if !r.HasAnyView(p.Views) {
		return false
	}
	return true
}

// Report aggregates occupancy over the range. The revenue projection is
// occupied rooms times their type's base nightly price times nights; base
// price is used rather than the dynamic quote to keep the report cheap
// and independent of the demand feedback loop.
func (ix *Index) Report(ctx context.Context, propertyID int64, rng domain.DateRange) (domain.AvailabilityReport, error) {
	rooms, err := ix.repo.ListRooms(ctx, propertyID)
	if err != nil {
		return domain.AvailabilityReport{}, err
	}
	types, err := ix.typesByID(ctx, propertyID)
	if err != nil {
		return domain.AvailabilityReport{}, err
	}
	booked, err := ix.bookedRooms(ctx, propertyID, rng)
	if err != nil {
		return domain.AvailabilityReport{}, err
	}

	rep := domain.AvailabilityReport{TotalRooms: len(rooms)}
	nights := int64(rng.Nights())
	for _, r := range rooms {
		switch {
		case r.Status == domain.StatusMaintenance || r.Status == domain.StatusOutOfOrder:
			rep.MaintenanceRooms++
		case booked[r.ID] || r.Status == domain.StatusOccupied:
			rep.OccupiedRooms++
			if rt, ok := types[r.RoomTypeID]; ok {
				if cfg, err := ix.repo.GetPricingConfig(ctx, rt.ID); err == nil {
					rep.RevenueProjectionCents += cfg.BasePriceCents * nights
				}
			}
		default:
			rep.AvailableRooms++
		}
	}
	if rep.TotalRooms > 0 {
		rep.OccupancyRate = float64(rep.OccupiedRooms) / float64(rep.TotalRooms)
	}
	return rep, nil
}

func (ix *Index) typesByID(ctx context.Context, propertyID int64) (map[int64]domain.RoomType, error) {
	types, err := ix.repo.ListRoomTypes(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.RoomType, len(types))
	for _, rt := range types {
		byID[rt.ID] = rt
	}
	return byID, nil
}

func (ix *Index) bookedRooms(ctx context.Context, propertyID int64, rng domain.DateRange) (map[int64]bool, error) {
	bookings, err := ix.repo.ListBookings(ctx, propertyID, rng)
	if err != nil {
		return nil, err
	}
	booked := make(map[int64]bool, len(bookings))
	for _, b := range bookings {
		if b.Range.Overlaps(rng) {
			booked[b.RoomID] = true
		}
	}
	return booked, nil
}
