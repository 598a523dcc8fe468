//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"stayalloc/internal/domain"
	mysqlrepo "stayalloc/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO room_types (id, property_id, name, category_rank, max_occupancy)
		 VALUES (1, 7, 'standard', 1, 2), (2, 7, 'suite', 2, 4)`,
		`INSERT INTO rooms (id, property_id, room_type_id, number, floor, wing, amenities, views, accessible, status)
		 VALUES
		   (101, 7, 1, '101', 1, 'north', '["wifi"]', '[]', 0, 'available'),
		   (102, 7, 1, '102', 2, NULL, '["wifi","minibar"]', '["sea"]', 1, 'available'),
		   (201, 7, 2, '201', 3, 'north', '["wifi","minibar"]', '["sea"]', 0, 'maintenance')`,
		`INSERT INTO bookings (id, property_id, room_id, check_in, check_out)
		 VALUES (1, 7, 101, '2026-05-04', '2026-05-07')`,
		`INSERT INTO pricing_configs (room_type_id, config) VALUES (1, '{
		   "room_type_id": 1,
		   "enabled": true,
		   "base_price_cents": 10000,
		   "min_price_cents": 5000,
		   "max_price_cents": 50000,
		   "seasonal": {
		     "peak": {"multiplier": 1.5, "months": [6, 7, 8]},
		     "off_peak": {"multiplier": 0.8, "months": [1, 2, 11]},
		     "shoulder": {"multiplier": 1.0}
		   },
		   "weekly": {"5": 1.2, "6": 1.2},
		   "demand": {"low": 0.9, "medium": 1.0, "high": 1.25},
		   "advance_discounts": {"days_30_plus": 20, "days_15_to_30": 10, "days_7_to_15": 5, "days_1_to_7": 2},
		   "last_minute_premium_pct": 15
		 }')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestRepo_MySQL_InventoryReads(t *testing.T) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=stayalloc",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "stayalloc")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	seed(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	t.Run("GetRoom", func(t *testing.T) {
		room, err := repo.GetRoom(ctx, 102)
		if err != nil {
			t.Fatalf("GetRoom: %v", err)
		}
		if room.Number != "102" || room.Wing != "" || !room.Accessible {
			t.Fatalf("room: %+v", room)
		}
		if len(room.Amenities) != 2 || len(room.Views) != 1 || room.Views[0] != "sea" {
			t.Fatalf("json columns: %+v", room)
		}
		if _, err := repo.GetRoom(ctx, 999); err != domain.ErrNotFound {
			t.Fatalf("missing room: %v", err)
		}
	})

	t.Run("ListRooms", func(t *testing.T) {
		rooms, err := repo.ListRooms(ctx, 7)
		if err != nil {
			t.Fatalf("ListRooms: %v", err)
		}
		if len(rooms) != 3 {
			t.Fatalf("rooms: %d", len(rooms))
		}
	})

	t.Run("RoomTypes", func(t *testing.T) {
		rt, err := repo.GetRoomType(ctx, 2)
		if err != nil {
			t.Fatalf("GetRoomType: %v", err)
		}
		if rt.Name != "suite" || rt.CategoryRank != 2 || rt.MaxOccupancy != 4 {
			t.Fatalf("type: %+v", rt)
		}
		types, err := repo.ListRoomTypes(ctx, 7)
		if err != nil || len(types) != 2 {
			t.Fatalf("ListRoomTypes: %v %d", err, len(types))
		}
	})

	t.Run("ListBookings_Overlap", func(t *testing.T) {
		rng := func(ci, co string) domain.DateRange {
			p := func(s string) time.Time {
				d, err := time.Parse("2006-01-02", s)
				if err != nil {
					t.Fatalf("parse: %v", err)
				}
				return d
			}
			r, err := domain.NewDateRange(p(ci), p(co))
			if err != nil {
				t.Fatalf("range: %v", err)
			}
			return r
		}

		bs, err := repo.ListBookings(ctx, 7, rng("2026-05-06", "2026-05-09"))
		if err != nil {
			t.Fatalf("ListBookings: %v", err)
		}
		if len(bs) != 1 || bs[0].RoomID != 101 {
			t.Fatalf("bookings: %+v", bs)
		}
		// back-to-back stay starting on the checkout day does not overlap
		bs, err = repo.ListBookings(ctx, 7, rng("2026-05-07", "2026-05-09"))
		if err != nil {
			t.Fatalf("ListBookings: %v", err)
		}
		if len(bs) != 0 {
			t.Fatalf("bookings: %+v", bs)
		}
	})

	t.Run("GetPricingConfig", func(t *testing.T) {
		cfg, err := repo.GetPricingConfig(ctx, 1)
		if err != nil {
			t.Fatalf("GetPricingConfig: %v", err)
		}
		if cfg.RoomTypeID != 1 || !cfg.Enabled || cfg.BasePriceCents != 10000 {
			t.Fatalf("config: %+v", cfg)
		}
		if cfg.Seasonal.Peak.Multiplier != 1.5 || len(cfg.Seasonal.Peak.Months) != 3 {
			t.Fatalf("seasonal: %+v", cfg.Seasonal)
		}
		if cfg.WeeklyFor(time.Friday) != 1.2 || cfg.WeeklyFor(time.Monday) != 1.0 {
			t.Fatalf("weekly: %+v", cfg.Weekly)
		}
		if cfg.AdvanceDiscounts.Days30Plus != 20 {
			t.Fatalf("advance: %+v", cfg.AdvanceDiscounts)
		}
		if _, err := repo.GetPricingConfig(ctx, 2); err != domain.ErrNotFound {
			t.Fatalf("missing config: %v", err)
		}
	})

	t.Run("UpdateRoomStatus", func(t *testing.T) {
		if err := repo.UpdateRoomStatus(ctx, 101, domain.StatusCleaning); err != nil {
			t.Fatalf("UpdateRoomStatus: %v", err)
		}
		room, err := repo.GetRoom(ctx, 101)
		if err != nil || room.Status != domain.StatusCleaning {
			t.Fatalf("room after update: %+v %v", room, err)
		}
		if err := repo.UpdateRoomStatus(ctx, 999, domain.StatusCleaning); err != domain.ErrNotFound {
			t.Fatalf("missing room: %v", err)
		}
	})
}
