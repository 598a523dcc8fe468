package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"stayalloc/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func scanRoom(sc interface{ Scan(...any) error }) (domain.Room, error) {
	var r domain.Room
	var wing sql.NullString
	var amenitiesJSON, viewsJSON []byte
	var accessible bool
	var status string
	if err := sc.Scan(
		&r.ID, &r.PropertyID, &r.RoomTypeID, &r.Number,
		&r.Floor, &wing, &amenitiesJSON, &viewsJSON, &accessible, &status,
	); err != nil {
		return domain.Room{}, err
	}
	if wing.Valid {
		r.Wing = wing.String
	}
	_ = json.Unmarshal(amenitiesJSON, &r.Amenities)
	_ = json.Unmarshal(viewsJSON, &r.Views)
	r.Accessible = accessible
	r.Status = domain.RoomStatus(status)
	return r, nil
}

func (r *Repo) GetRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	row := r.db.QueryRowContext(ctx, getRoomSQL, roomID)
	room, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return domain.Room{}, domain.ErrNotFound
	}
	return room, err
}

func (r *Repo) ListRooms(ctx context.Context, propertyID int64) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, listRoomsSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (r *Repo) GetRoomType(ctx context.Context, roomTypeID int64) (domain.RoomType, error) {
	var rt domain.RoomType
	err := r.db.QueryRowContext(ctx, getRoomTypeSQL, roomTypeID).Scan(
		&rt.ID, &rt.PropertyID, &rt.Name, &rt.CategoryRank, &rt.MaxOccupancy,
	)
	if err == sql.ErrNoRows {
		return domain.RoomType{}, domain.ErrNotFound
	}
	return rt, err
}

func (r *Repo) ListRoomTypes(ctx context.Context, propertyID int64) ([]domain.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, listRoomTypesSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomType
	for rows.Next() {
		var rt domain.RoomType
		if err := rows.Scan(&rt.ID, &rt.PropertyID, &rt.Name, &rt.CategoryRank, &rt.MaxOccupancy); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateRoomStatus(ctx context.Context, roomID int64, status domain.RoomStatus) error {
	res, err := r.db.ExecContext(ctx, updateRoomStatusSQL, string(status), roomID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) ListBookings(ctx context.Context, propertyID int64, rng domain.DateRange) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, listBookingsSQL,
		propertyID, rng.CheckOut, rng.CheckIn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.RoomID, &b.Range.CheckIn, &b.Range.CheckOut); err != nil {
			return nil, err
		}
		b.Range.CheckIn = domain.Day(b.Range.CheckIn)
		b.Range.CheckOut = domain.Day(b.Range.CheckOut)
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetPricingConfig reads the rule set stored as one JSON document per room
// type; admin tooling owns the writes.
func (r *Repo) GetPricingConfig(ctx context.Context, roomTypeID int64) (domain.PricingConfig, error) {
	var id int64
	var raw []byte
	err := r.db.QueryRowContext(ctx, getPricingConfigSQL, roomTypeID).Scan(&id, &raw)
	if err == sql.ErrNoRows {
		return domain.PricingConfig{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PricingConfig{}, err
	}
	var cfg domain.PricingConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.PricingConfig{}, fmt.Errorf("decode pricing config for room type %d: %w", roomTypeID, err)
	}
	cfg.RoomTypeID = id
	return cfg, nil
}
