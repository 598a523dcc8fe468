// Package pricing computes nightly stay prices from a room type's pricing
// configuration. Compute is pure: no I/O, no clock reads, no shared state.
package pricing

import (
	"math"
	"time"

	"stayalloc/internal/domain"
)

// Compute prices each night in rng against cfg.
//
// now anchors the advance-booking and last-minute adjustments; occupancy is
// the property's occupancy rate in [0,1] over the stay, supplied by the
// caller so the function stays deterministic. An active blocked range
// covering any night fails the whole request rather than producing a
// partial quote.
func Compute(cfg domain.PricingConfig, rng domain.DateRange, guests int, now time.Time, occupancy float64) (domain.PricingResult, error) {
	if !rng.CheckOut.After(rng.CheckIn) {
		return domain.PricingResult{}, domain.NewValidation("check-out must be strictly after check-in")
	}
	if guests < 1 {
		return domain.PricingResult{}, domain.NewValidation("guest count must be at least 1")
	}
	if err := cfg.Validate(); err != nil {
		return domain.PricingResult{}, err
	}

	if cfg.Availability != nil {
		for _, night := range rng.EachNight() {
			if b, ok := cfg.Availability.ActiveBlockFor(night); ok {
				return domain.PricingResult{}, domain.NewAvailability(
					"stay intersects blocked range starting %s (%s)",
					b.Range.CheckIn.Format("2006-01-02"), b.Reason)
			}
		}
	}

	if !cfg.Enabled {
		return flatResult(cfg, rng), nil
	}

	leadDays := int(domain.Day(rng.CheckIn).Sub(domain.Day(now)).Hours() / 24)
	advancePct := cfg.AdvanceDiscounts.ForLeadDays(leadDays)
	lastMinutePct := 0.0
	if leadDays >= 0 && leadDays < 7 {
		lastMinutePct = cfg.LastMinutePremiumPct
	}
	demandBand, demandMult := cfg.Demand.ForOccupancy(occupancy)

	nights := make([]domain.NightPrice, 0, rng.Nights())
	var total int64
	for _, night := range rng.EachNight() {
		np := domain.NightPrice{Date: night, BasePriceCents: cfg.BasePriceCents}

		if rule, ok := cfg.ActiveOverrideFor(night); ok {
			// Admin-set prices stand as-is: no multipliers, no clamping.
			np.PriceCents = rule.PriceCents
			np.Overridden = true
			nights = append(nights, np)
			total += np.PriceCents
			continue
		}

		np.Season, np.SeasonalMultiplier = cfg.Seasonal.Bucket(night.Month())
		np.WeeklyMultiplier = cfg.WeeklyFor(night.Weekday())
		np.DemandBand, np.DemandMultiplier = demandBand, demandMult
		np.AdvanceDiscountPct = advancePct
		np.LastMinutePremiumPct = lastMinutePct

		price := float64(cfg.BasePriceCents)
		price *= np.SeasonalMultiplier
		price *= np.WeeklyMultiplier
		price *= np.DemandMultiplier
		price *= 1 - advancePct/100
		price *= 1 + lastMinutePct/100

		cents := int64(math.Round(price))
		if cents < cfg.MinPriceCents {
			cents = cfg.MinPriceCents
			np.Clamped = true
		}
		if cents > cfg.MaxPriceCents {
			cents = cfg.MaxPriceCents
			np.Clamped = true
		}
		np.PriceCents = cents
		nights = append(nights, np)
		total += cents
	}

	return domain.PricingResult{
		Nights:              nights,
		TotalCents:          total,
		NightlyAverageCents: averageCents(total, len(nights)),
		Dynamic:             true,
	}, nil
}

// flatResult prices a disabled configuration: basePrice per night, no
// adjustments, flagged non-dynamic.
func flatResult(cfg domain.PricingConfig, rng domain.DateRange) domain.PricingResult {
	nights := make([]domain.NightPrice, 0, rng.Nights())
	var total int64
	for _, night := range rng.EachNight() {
		nights = append(nights, domain.NightPrice{
			Date:           night,
			PriceCents:     cfg.BasePriceCents,
			BasePriceCents: cfg.BasePriceCents,
		})
		total += cfg.BasePriceCents
	}
	return domain.PricingResult{
		Nights:              nights,
		TotalCents:          total,
		NightlyAverageCents: averageCents(total, len(nights)),
		Dynamic:             false,
	}
}

func averageCents(total int64, nights int) int64 {
	if nights == 0 {
		return 0
	}
	return int64(math.Round(float64(total) / float64(nights)))
}
