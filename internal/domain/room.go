package domain

type RoomStatus string

const (
	StatusAvailable   RoomStatus = "available"
	StatusOccupied    RoomStatus = "occupied"
	StatusMaintenance RoomStatus = "maintenance"
	StatusCleaning    RoomStatus = "cleaning"
	StatusOutOfOrder  RoomStatus = "out_of_order"
	StatusReserved    RoomStatus = "reserved"
)

// ValidStatus reports whether s is one of the known housekeeping statuses.
func ValidStatus(s RoomStatus) bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusMaintenance,
		StatusCleaning, StatusOutOfOrder, StatusReserved:
		return true
	}
	return false
}

// Bookable reports whether a room in this status may be offered at all.
// Cleaning and reserved rooms still qualify for future stays; only rooms
// pulled from service are excluded outright.
func (s RoomStatus) Bookable() bool {
	return s != StatusMaintenance && s != StatusOutOfOrder
}

// RoomType is the sellable category (standard, deluxe, suite, ...).
// CategoryRank orders types for upgrade offers: higher rank, higher category.
type RoomType struct {
	ID           int64  `json:"id"`
	PropertyID   int64  `json:"property_id"`
	Name         string `json:"name"`
	CategoryRank int    `json:"category_rank"`
	MaxOccupancy int    `json:"max_occupancy"`
}

// Room is one physical room. Status is owned by housekeeping workflows;
// the engine only reads it.
type Room struct {
	ID         int64      `json:"id"`
	PropertyID int64      `json:"property_id"`
	RoomTypeID int64      `json:"room_type_id"`
	Number     string     `json:"number"`
	Floor      int        `json:"floor"`
	Wing       string     `json:"wing,omitempty"`
	Amenities  []string   `json:"amenities,omitempty"`
	Views      []string   `json:"views,omitempty"`
	Accessible bool       `json:"accessible"`
	Status     RoomStatus `json:"status"`
}

// HasAmenities reports whether the room carries every requested amenity.
func (r Room) HasAmenities(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]bool, len(r.Amenities))
	for _, a := range r.Amenities {
		have[a] = true
	}
	for _, w := range want {
		if !have[w] {
			return false
		}
	}
	return true
}

// HasAnyView reports whether the room offers at least one requested view tag.
func (r Room) HasAnyView(want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, v := range r.Views {
		for _, w := range want {
			if v == w {
				return true
			}
		}
	}
	return false
}

// Booking is a confirmed stay on a room, read for overlap checks only.
type Booking struct {
	ID     int64     `json:"id"`
	RoomID int64     `json:"room_id"`
	Range  DateRange `json:"range"`
}
