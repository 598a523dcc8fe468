package domain

import "time"

// All prices are integer minor units (cents). Multipliers are applied in
// float space per night and rounded once, so totals stay exact sums.

type SeasonBucket struct {
	Multiplier float64      `json:"multiplier"`
	Months     []time.Month `json:"months,omitempty"`
}

// SeasonalRates holds the three named buckets. A month matching no bucket
// prices as shoulder.
type SeasonalRates struct {
	Peak     SeasonBucket `json:"peak"`
	OffPeak  SeasonBucket `json:"off_peak"`
	Shoulder SeasonBucket `json:"shoulder"`
}

// Bucket returns the bucket name and multiplier for a calendar month.
func (s SeasonalRates) Bucket(m time.Month) (string, float64) {
	for _, mm := range s.Peak.Months {
		if mm == m {
			return "peak", s.Peak.Multiplier
		}
	}
	for _, mm := range s.OffPeak.Months {
		if mm == m {
			return "off_peak", s.OffPeak.Multiplier
		}
	}
	return "shoulder", s.Shoulder.Multiplier
}

// DemandPricing maps occupancy bands to multipliers. Band thresholds:
// low < 0.40, medium 0.40 to 0.75, high > 0.75.
type DemandPricing struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// ForOccupancy picks the band multiplier for an occupancy rate in [0,1].
func (d DemandPricing) ForOccupancy(rate float64) (string, float64) {
	switch {
	case rate > 0.75:
		return "high", d.High
	case rate >= 0.40:
		return "medium", d.Medium
	default:
		return "low", d.Low
	}
}

// AdvanceDiscounts are percentage reductions keyed by days between
// booking time and check-in.
type AdvanceDiscounts struct {
	Days30Plus float64 `json:"days_30_plus"`  // 30+
	Days15To30 float64 `json:"days_15_to_30"` // [15,30)
	Days7To15  float64 `json:"days_7_to_15"`  // [7,15)
	Days1To7   float64 `json:"days_1_to_7"`   // [1,7)
}

// ForLeadDays returns the discount percentage for a lead time in days.
func (a AdvanceDiscounts) ForLeadDays(days int) float64 {
	switch {
	case days >= 30:
		return a.Days30Plus
	case days >= 15:
		return a.Days15To30
	case days >= 7:
		return a.Days7To15
	case days >= 1:
		return a.Days1To7
	default:
		return 0
	}
}

// DirectPriceRule is an admin-set fixed price for a date range. An active
// rule replaces every computed factor for nights it covers.
type DirectPriceRule struct {
	Range      DateRange `json:"range"`
	PriceCents int64     `json:"price_cents"`
	Active     bool      `json:"active"`
}

// BlockedRange withholds nights from sale entirely.
type BlockedRange struct {
	Range  DateRange `json:"range"`
	Reason string    `json:"reason,omitempty"`
	Active bool      `json:"active"`
}

// AvailabilityControl carries blocked ranges plus demand-control tuning.
// The tuning fields steer the admin tooling that writes blocks; the engine
// only honors the blocks themselves.
type AvailabilityControl struct {
	Blocks                  []BlockedRange `json:"blocks,omitempty"`
	MinBlockNights          int            `json:"min_block_nights,omitempty"`
	MaxBlockNights          int            `json:"max_block_nights,omitempty"`
	TargetOccupancyIncrease float64        `json:"target_occupancy_increase,omitempty"`
}

// ActiveBlockFor returns the first active block covering the night, if any.
func (a AvailabilityControl) ActiveBlockFor(night time.Time) (BlockedRange, bool) {
	for _, b := range a.Blocks {
		if b.Active && b.Range.ContainsNight(night) {
			return b, true
		}
	}
	return BlockedRange{}, false
}

// PricingConfig is the per-room-type rule set the engine prices against.
type PricingConfig struct {
	RoomTypeID           int64                    `json:"room_type_id"`
	Enabled              bool                     `json:"enabled"`
	BasePriceCents       int64                    `json:"base_price_cents"`
	MinPriceCents        int64                    `json:"min_price_cents"`
	MaxPriceCents        int64                    `json:"max_price_cents"`
	Seasonal             SeasonalRates            `json:"seasonal"`
	Weekly               map[time.Weekday]float64 `json:"weekly,omitempty"`
	Demand               DemandPricing            `json:"demand"`
	AdvanceDiscounts     AdvanceDiscounts         `json:"advance_discounts"`
	LastMinutePremiumPct float64                  `json:"last_minute_premium_pct,omitempty"` // applied when check-in is within 7 days
	DirectPricing        []DirectPriceRule        `json:"direct_pricing,omitempty"`
	Availability         *AvailabilityControl     `json:"availability,omitempty"`
}

// WeeklyFor returns the day-of-week multiplier, defaulting to 1.0.
func (c PricingConfig) WeeklyFor(d time.Weekday) float64 {
	if m, ok := c.Weekly[d]; ok && m > 0 {
		return m
	}
	return 1.0
}

// ActiveOverrideFor returns the active direct-price rule covering the
// night, if any. Rules are ordered; the first active match wins.
func (c PricingConfig) ActiveOverrideFor(night time.Time) (DirectPriceRule, bool) {
	for _, r := range c.DirectPricing {
		if r.Active && r.Range.ContainsNight(night) {
			return r, true
		}
	}
	return DirectPriceRule{}, false
}

// Validate enforces the config invariants: price bounds ordered, every
// multiplier positive.
func (c PricingConfig) Validate() error {
	if c.BasePriceCents <= 0 {
		return NewValidation("base price must be positive")
	}
	if c.MinPriceCents > c.MaxPriceCents {
		return NewValidation("min price %d exceeds max price %d", c.MinPriceCents, c.MaxPriceCents)
	}
	for _, m := range []float64{
		c.Seasonal.Peak.Multiplier, c.Seasonal.OffPeak.Multiplier, c.Seasonal.Shoulder.Multiplier,
		c.Demand.Low, c.Demand.Medium, c.Demand.High,
	} {
		if m <= 0 {
			return NewValidation("multipliers must be positive")
		}
	}
	for d, m := range c.Weekly {
		if m <= 0 {
			return NewValidation("weekly multiplier for %s must be positive", d)
		}
	}
	return nil
}

// NightPrice is the audited breakdown for one night.
type NightPrice struct {
	Date                 time.Time `json:"date"`
	PriceCents           int64     `json:"price_cents"`
	BasePriceCents       int64     `json:"base_price_cents"`
	Season               string    `json:"season"`
	SeasonalMultiplier   float64   `json:"seasonal_multiplier"`
	WeeklyMultiplier     float64   `json:"weekly_multiplier"`
	DemandBand           string    `json:"demand_band"`
	DemandMultiplier     float64   `json:"demand_multiplier"`
	AdvanceDiscountPct   float64   `json:"advance_discount_pct"`
	LastMinutePremiumPct float64   `json:"last_minute_premium_pct"`
	Overridden           bool      `json:"overridden"`
	Clamped              bool      `json:"clamped"`
}

type PricingResult struct {
	Nights              []NightPrice `json:"nights"`
	TotalCents          int64        `json:"total_cents"`
	NightlyAverageCents int64        `json:"nightly_average_cents"`
	Dynamic             bool         `json:"dynamic"`
}
