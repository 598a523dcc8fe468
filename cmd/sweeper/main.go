// The sweeper evicts expired holds on a fixed interval. Correctness never
// depends on it: every read path already skips expired holds, and the
// Redis backend expires keys natively. It exists to keep the memory
// backend tidy and the hold metrics honest.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"stayalloc/internal/adapters/observability"
	"stayalloc/internal/adapters/redishold"
	"stayalloc/internal/domain"
	"stayalloc/internal/holds"
	"stayalloc/internal/resilience"
	"stayalloc/internal/shared"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	var store domain.HoldStore
	switch cfg.HoldBackend {
	case "redis":
		store = redishold.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	default:
		store = holds.NewMemoryStore()
	}
	store = resilience.GuardHoldStore(
		store,
		resilience.New("holds", cfg.RetryAttempts, cfg.RetryBaseWait, cfg.CallTimeout),
	)
	manager := holds.NewManager(store, cfg.HoldTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Dur("interval", cfg.SweepInterval).Msg("sweeper starting")

	// one sweep at a time; a slow sweep skips ticks instead of stacking
	sem := semaphore.NewWeighted(1)
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweeper stopping")
			return
		case <-ticker.C:
			if !sem.TryAcquire(1) {
				log.Warn().Msg("previous sweep still running, skipping tick")
				continue
			}
			go func() {
				defer sem.Release(1)
				n, err := manager.SweepExpired(ctx)
				if err != nil {
					log.Warn().Err(err).Msg("sweep failed")
					return
				}
				log.Info().Int("evicted", n).Msg("sweep ok")
			}()
		}
	}
}
