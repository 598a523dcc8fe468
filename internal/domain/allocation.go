package domain

import "time"

// Preferences narrow a stay request. Room type and accessibility are hard
// constraints; floor, wing, amenities and views are soft and only affect
// ranking when the strict search comes up empty.
type Preferences struct {
	RoomTypeID *int64
	Floor      *int
	Wing       *string
	Amenities  []string
	Accessible bool
	Views      []string
}

// Hard returns a copy keeping only the constraints that must never be relaxed.
func (p Preferences) Hard() Preferences {
	return Preferences{RoomTypeID: p.RoomTypeID, Accessible: p.Accessible}
}

// SoftCount is the number of soft preference dimensions actually requested.
func (p Preferences) SoftCount() int {
	n := 0
	if p.Floor != nil {
		n++
	}
	if p.Wing != nil {
		n++
	}
	if len(p.Amenities) > 0 {
		n++
	}
	if len(p.Views) > 0 {
		n++
	}
	return n
}

// MatchSoft counts how many requested soft dimensions the room satisfies.
func (p Preferences) MatchSoft(r Room) int {
	n := 0
	if p.Floor != nil && r.Floor == *p.Floor {
		n++
	}
	if p.Wing != nil && r.Wing == *p.Wing {
		n++
	}
	if len(p.Amenities) > 0 && r.HasAmenities(p.Amenities) {
		n++
	}
	if len(p.Views) > 0 && r.HasAnyView(p.Views) {
		n++
	}
	return n
}

// AllocationRequest is one incoming stay request. Not persisted.
type AllocationRequest struct {
	PropertyID     int64
	Range          DateRange
	Guests         int
	Preferences    *Preferences
	SpecialRequest string
	AllowWaitlist  bool
	RequestedBy    string
}

func (r AllocationRequest) Validate() error {
	if r.PropertyID <= 0 {
		return NewValidation("property id is required")
	}
	if !r.Range.CheckOut.After(r.Range.CheckIn) {
		return NewValidation("check-out must be strictly after check-in")
	}
	if r.Guests < 1 {
		return NewValidation("guest count must be at least 1")
	}
	return nil
}

// PricedRoom is a candidate with its computed stay price and how many
// soft preferences it matched.
type PricedRoom struct {
	Room         Room          `json:"room"`
	RoomType     RoomType      `json:"room_type"`
	Pricing      PricingResult `json:"pricing"`
	MatchedPrefs int           `json:"matched_prefs"`
}

// UpgradeOption is a higher-category room available for the same stay.
type UpgradeOption struct {
	Room            Room          `json:"room"`
	RoomType        RoomType      `json:"room_type"`
	Pricing         PricingResult `json:"pricing"`
	PriceDeltaCents int64         `json:"price_delta_cents"`
}

// AllocationResult is the engine's answer to an allocation request.
// On success exactly one Hold exists; on failure, none.
type AllocationResult struct {
	Success            bool            `json:"success"`
	Room               *PricedRoom     `json:"room,omitempty"`
	Alternatives       []PricedRoom    `json:"alternatives,omitempty"`
	Upgrades           []UpgradeOption `json:"upgrades,omitempty"`
	HoldID             string          `json:"hold_id,omitempty"`
	HoldExpiresAt      time.Time       `json:"hold_expires_at"`
	OverbookingWarning bool            `json:"overbooking_warning"`
}

// AvailabilityReport aggregates occupancy over a property and range.
type AvailabilityReport struct {
	TotalRooms             int     `json:"total_rooms"`
	AvailableRooms         int     `json:"available_rooms"`
	OccupiedRooms          int     `json:"occupied_rooms"`
	MaintenanceRooms       int     `json:"maintenance_rooms"`
	OccupancyRate          float64 `json:"occupancy_rate"`
	RevenueProjectionCents int64   `json:"revenue_projection_cents"`
}

// AvailabilityView is the browse-availability response: priced free rooms
// plus the aggregate report.
type AvailabilityView struct {
	Rooms  []PricedRoom       `json:"rooms"`
	Report AvailabilityReport `json:"report"`
}
