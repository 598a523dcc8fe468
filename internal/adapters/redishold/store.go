// Package redishold backs the hold store with Redis. Each held night is a
// key with the hold's TTL, so expiry is enforced by Redis itself; the
// conditional multi-key write runs as one Lua script, which Redis executes
// atomically, so two racing allocations can never both claim a night.
package redishold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stayalloc/internal/domain"
)

// claimScript checks every night key and, only if all are free, sets them
// plus the hold record, all with the same TTL in milliseconds.
// KEYS: record key followed by night keys. ARGV: hold JSON, hold id, ttl ms.
var claimScript = redis.NewScript(`
for i = 2, #KEYS do
  if redis.call('EXISTS', KEYS[i]) == 1 then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
for i = 2, #KEYS do
  redis.call('SET', KEYS[i], ARGV[2], 'PX', ARGV[3])
end
return 1
`)

type Store struct{ c *redis.Client }

func New(addr, pass string, db int) *Store {
	return &Store{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

// NewWithClient wraps an existing client. Tests use this with miniredis.
func NewWithClient(c *redis.Client) *Store { return &Store{c: c} }

func recordKey(holdID string) string { return "hold:rec:" + holdID }

func nightKey(roomID int64, night time.Time) string {
	return fmt.Sprintf("hold:night:%d:%s", roomID, night.Format("2006-01-02"))
}

func (s *Store) PutIfFree(ctx context.Context, h domain.Hold) error {
	ttl := time.Until(h.ExpiresAt)
	if ttl <= 0 {
		return domain.ErrHoldExpired
	}
	keys := []string{recordKey(h.ID)}
	for _, night := range h.Range.EachNight() {
		keys = append(keys, nightKey(h.RoomID, night))
	}
	rec, err := json.Marshal(h)
	if err != nil {
		return err
	}
	ok, err := claimScript.Run(ctx, s.c, keys, rec, h.ID, ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if ok != 1 {
		return domain.ErrHoldConflict
	}
	return nil
}

func (s *Store) Get(ctx context.Context, holdID string) (domain.Hold, error) {
	b, err := s.c.Get(ctx, recordKey(holdID)).Bytes()
	if err == redis.Nil {
		return domain.Hold{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Hold{}, err
	}
	var h domain.Hold
	if err := json.Unmarshal(b, &h); err != nil {
		return domain.Hold{}, err
	}
	return h, nil
}

func (s *Store) Delete(ctx context.Context, holdID string) error {
	h, err := s.Get(ctx, holdID)
	if err != nil {
		return err
	}
	keys := []string{recordKey(holdID)}
	for _, night := range h.Range.EachNight() {
		keys = append(keys, nightKey(h.RoomID, night))
	}
	return s.c.Del(ctx, keys...).Err()
}

func (s *Store) HeldRooms(ctx context.Context, roomIDs []int64, rng domain.DateRange, now time.Time) (map[int64]bool, error) {
	if len(roomIDs) == 0 {
		return map[int64]bool{}, nil
	}
	pipe := s.c.Pipeline()
	type probe struct {
		roomID int64
		cmd    *redis.IntCmd
	}
	probes := make([]probe, 0, len(roomIDs))
	for _, id := range roomIDs {
		keys := make([]string, 0, rng.Nights())
		for _, night := range rng.EachNight() {
			keys = append(keys, nightKey(id, night))
		}
		probes = append(probes, probe{roomID: id, cmd: pipe.Exists(ctx, keys...)})
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	held := make(map[int64]bool)
	for _, p := range probes {
		if p.cmd.Val() > 0 {
			held[p.roomID] = true
		}
	}
	return held, nil
}

// SweepExpired is a no-op: Redis evicts night and record keys by TTL.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
