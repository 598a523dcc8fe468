// Package app orchestrates the pricing-and-allocation flow: candidate
// lookup, concurrent pricing, ranking, and hold placement.
package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"stayalloc/internal/adapters/observability"
	"stayalloc/internal/availability"
	"stayalloc/internal/domain"
	"stayalloc/internal/holds"
	"stayalloc/internal/pricing"
)

// priceWorkers bounds concurrent candidate pricing per request.
const priceWorkers = 8

// maxAlternatives caps the ranked alternatives returned to the caller.
const maxAlternatives = 5

type Service struct {
	repo     domain.InventoryRepository
	index    *availability.Index
	holds    *holds.Manager
	cache    domain.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewService(repo domain.InventoryRepository, index *availability.Index, hm *holds.Manager, cache domain.Cache, cacheTTL time.Duration) *Service {
	return &Service{repo: repo, index: index, holds: hm, cache: cache, cacheTTL: cacheTTL, now: time.Now}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AllocateRoom finds, prices and soft-reserves a room for the request.
//
// The returned result is the structured outcome in both directions: on
// success exactly one hold exists and Room is set; when no room qualifies,
// Success is false, OverbookingWarning distinguishes waitlistable from
// truly full, and no state is left behind. An error return is reserved for
// invalid input and dependency failures.
func (s *Service) AllocateRoom(ctx context.Context, req domain.AllocationRequest) (domain.AllocationResult, error) {
	if err := req.Validate(); err != nil {
		return domain.AllocationResult{}, err
	}

	report, err := s.index.Report(ctx, req.PropertyID, req.Range)
	if err != nil {
		observability.ObserveAllocation("error")
		return domain.AllocationResult{}, err
	}

	prefs := req.Preferences
	cands, err := s.index.AvailableRooms(ctx, req.PropertyID, req.Range, req.Guests, prefs)
	if err != nil {
		observability.ObserveAllocation("error")
		return domain.AllocationResult{}, err
	}

	relaxed := false
	if len(cands) == 0 && prefs != nil && prefs.SoftCount() > 0 {
		// Keep the hard constraints, drop the soft ones.
		hard := prefs.Hard()
		cands, err = s.index.AvailableRooms(ctx, req.PropertyID, req.Range, req.Guests, &hard)
		if err != nil {
			observability.ObserveAllocation("error")
			return domain.AllocationResult{}, err
		}
		relaxed = true
	}

	ranked, err := s.priceAndRank(ctx, cands, req, report.OccupancyRate)
	if err != nil {
		observability.ObserveAllocation("error")
		return domain.AllocationResult{}, err
	}

	if len(ranked) == 0 {
		outcome := "unavailable"
		if req.AllowWaitlist {
			outcome = "overbooking"
		}
		observability.ObserveAllocation(outcome)
		return domain.AllocationResult{Success: false, OverbookingWarning: req.AllowWaitlist}, nil
	}

	// Walk the ranking; a lost hold race falls through to the next
	// candidate so exactly one concurrent caller wins each room.
	for i, cand := range ranked {
		hold, err := s.holds.Create(ctx, cand.Room, req.Range, req.RequestedBy)
		if err != nil {
			if domain.IsKind(err, domain.KindConflict) {
				log.Debug().Int64("room", cand.Room.ID).Msg("hold race lost, trying next candidate")
				continue
			}
			observability.ObserveAllocation("error")
			return domain.AllocationResult{}, err
		}

		chosen := cand
		res := domain.AllocationResult{
			Success:       true,
			Room:          &chosen,
			Alternatives:  capAlternatives(ranked[i+1:]),
			HoldID:        hold.ID,
			HoldExpiresAt: hold.ExpiresAt,
		}
		if ups, err := s.UpgradeOptions(ctx, req.PropertyID, cand.RoomType.ID, req.Range, req.Guests); err == nil {
			for i := range ups {
				ups[i].PriceDeltaCents = ups[i].Pricing.TotalCents - chosen.Pricing.TotalCents
			}
			res.Upgrades = ups
		}
		if relaxed {
			observability.ObserveAllocation("relaxed")
		} else {
			observability.ObserveAllocation("allocated")
		}
		return res, nil
	}

	// Every candidate was taken while we raced for it.
	observability.ObserveAllocation("unavailable")
	return domain.AllocationResult{Success: false, OverbookingWarning: req.AllowWaitlist}, nil
}

// QueryAvailability returns every priced free room matching the filters
// plus the aggregate occupancy report.
func (s *Service) QueryAvailability(ctx context.Context, propertyID int64, rng domain.DateRange, guests int, filters *domain.Preferences) (domain.AvailabilityView, error) {
	if propertyID <= 0 {
		return domain.AvailabilityView{}, domain.NewValidation("property id is required")
	}
	if !rng.CheckOut.After(rng.CheckIn) {
		return domain.AvailabilityView{}, domain.NewValidation("check-out must be strictly after check-in")
	}
	if guests < 1 {
		return domain.AvailabilityView{}, domain.NewValidation("guest count must be at least 1")
	}

	report, err := s.index.Report(ctx, propertyID, rng)
	if err != nil {
		return domain.AvailabilityView{}, err
	}
	cands, err := s.index.AvailableRooms(ctx, propertyID, rng, guests, filters)
	if err != nil {
		return domain.AvailabilityView{}, err
	}
	req := domain.AllocationRequest{PropertyID: propertyID, Range: rng, Guests: guests, Preferences: filters}
	ranked, err := s.priceAndRank(ctx, cands, req, report.OccupancyRate)
	if err != nil {
		return domain.AvailabilityView{}, err
	}
	return domain.AvailabilityView{Rooms: ranked, Report: report}, nil
}

// UpgradeOptions lists available higher-category rooms for the same stay.
// PriceDeltaCents is left zero here; callers comparing against a concrete
// allocation fill it in.
func (s *Service) UpgradeOptions(ctx context.Context, propertyID, currentTypeID int64, rng domain.DateRange, guests int) ([]domain.UpgradeOption, error) {
	current, err := s.repo.GetRoomType(ctx, currentTypeID)
	if err != nil {
		return nil, err
	}
	cands, err := s.index.AvailableRooms(ctx, propertyID, rng, guests, nil)
	if err != nil {
		return nil, err
	}
	report, err := s.index.Report(ctx, propertyID, rng)
	if err != nil {
		return nil, err
	}

	// Cheapest room per higher-ranked type.
	best := make(map[int64]domain.UpgradeOption)
	for _, c := range cands {
		if c.RoomType.CategoryRank <= current.CategoryRank {
			continue
		}
		pr, err := s.price(ctx, c, guests, rng, report.OccupancyRate)
		if err != nil {
			continue // blocked or unpriceable type; not offerable
		}
		prev, ok := best[c.RoomType.ID]
		if !ok || pr.TotalCents < prev.Pricing.TotalCents {
			best[c.RoomType.ID] = domain.UpgradeOption{Room: c.Room, RoomType: c.RoomType, Pricing: pr}
		}
	}

	out := make([]domain.UpgradeOption, 0, len(best))
	for _, u := range best {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomType.CategoryRank != out[j].RoomType.CategoryRank {
			return out[i].RoomType.CategoryRank < out[j].RoomType.CategoryRank
		}
		return out[i].Pricing.TotalCents < out[j].Pricing.TotalCents
	})
	return out, nil
}

// UpdateRoomStatus is the housekeeping entry point. Availability derives
// from the stored status on the next query; nothing is cached.
func (s *Service) UpdateRoomStatus(ctx context.Context, roomID int64, status domain.RoomStatus) error {
	if !domain.ValidStatus(status) {
		return domain.NewValidation("unknown room status %q", status)
	}
	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		return err
	}
	if err := s.repo.UpdateRoomStatus(ctx, roomID, status); err != nil {
		return err
	}
	log.Info().Int64("room", roomID).Str("status", string(status)).Msg("room status updated")
	return nil
}

// ReleaseHold exposes explicit hold cancellation to callers.
func (s *Service) ReleaseHold(ctx context.Context, holdID string) error {
	return s.holds.Release(ctx, holdID)
}

// ConfirmHold re-validates a hold for the booking-creation workflow.
func (s *Service) ConfirmHold(ctx context.Context, holdID string) (domain.Hold, error) {
	return s.holds.Confirm(ctx, holdID)
}

// priceAndRank prices candidates concurrently and orders them by matched
// soft preferences desc, total price asc, room id asc. Candidates whose
// pricing configuration blocks the stay drop out of the ranking.
func (s *Service) priceAndRank(ctx context.Context, cands []availability.Candidate, req domain.AllocationRequest, occupancy float64) ([]domain.PricedRoom, error) {
	priced := make([]*domain.PricedRoom, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(priceWorkers)
	for i, cand := range cands {
		i, cand := i, cand
		g.Go(func() error {
			pr, err := s.price(gctx, cand, req.Guests, req.Range, occupancy)
			if err != nil {
				if domain.IsKind(err, domain.KindAvailability) {
					return nil // blocked range; candidate simply not offerable
				}
				return err
			}
			matched := 0
			if req.Preferences != nil {
				matched = req.Preferences.MatchSoft(cand.Room)
			}
			priced[i] = &domain.PricedRoom{Room: cand.Room, RoomType: cand.RoomType, Pricing: pr, MatchedPrefs: matched}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.PricedRoom, 0, len(priced))
	for _, p := range priced {
		if p != nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchedPrefs != out[j].MatchedPrefs {
			return out[i].MatchedPrefs > out[j].MatchedPrefs
		}
		if out[i].Pricing.TotalCents != out[j].Pricing.TotalCents {
			return out[i].Pricing.TotalCents < out[j].Pricing.TotalCents
		}
		return out[i].Room.ID < out[j].Room.ID
	})
	return out, nil
}

func (s *Service) price(ctx context.Context, cand availability.Candidate, guests int, rng domain.DateRange, occupancy float64) (domain.PricingResult, error) {
	cfg, err := s.pricingConfig(ctx, cand.RoomType.ID)
	if err != nil {
		return domain.PricingResult{}, err
	}
	return pricing.Compute(cfg, rng, guests, s.now(), occupancy)
}

// pricingConfig reads the room type's pricing rules through the cache.
// Staleness is bounded by the cache TTL, well inside the tolerance the
// hold TTL already grants availability reads.
func (s *Service) pricingConfig(ctx context.Context, roomTypeID int64) (domain.PricingConfig, error) {
	key := fmt.Sprintf("pricing_cfg:%d", roomTypeID)
	var cfg domain.PricingConfig
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &cfg); ok {
			return cfg, nil
		}
	}
	cfg, err := s.repo.GetPricingConfig(ctx, roomTypeID)
	if err != nil {
		return domain.PricingConfig{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, cfg, int(s.cacheTTL.Seconds()))
	}
	return cfg, nil
}

func capAlternatives(alts []domain.PricedRoom) []domain.PricedRoom {
	if len(alts) > maxAlternatives {
		alts = alts[:maxAlternatives]
	}
	out := make([]domain.PricedRoom, len(alts))
	copy(out, alts)
	return out
}
