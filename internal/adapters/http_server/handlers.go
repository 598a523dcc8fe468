package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"stayalloc/internal/app"
	"stayalloc/internal/domain"
)

type Handlers struct{ Svc *app.Service }

var validate = validator.New()

type problem struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Status        int    `json:"status"`
	Detail        string `json:"detail,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/properties/{id}/availability", h.queryAvailability)
	s.mux.Get("/v1/properties/{id}/upgrades", h.upgradeOptions)
	s.mux.Post("/v1/allocations", h.allocate)
	s.mux.Delete("/v1/holds/{id}", h.releaseHold)
	s.mux.Post("/v1/holds/{id}/confirm", h.confirmHold)
	s.mux.Patch("/v1/rooms/{id}/status", h.updateRoomStatus)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, correlationID string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	p := problem{Type: "about:blank", Title: title, Status: status, Detail: detail, CorrelationID: correlationID}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the engine's error kinds onto HTTP statuses. Only the
// kind, message and correlation id cross the wire; causes stay server-side.
func writeError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindValidation:
			writeProblem(w, http.StatusBadRequest, "Invalid Request", de.Message, de.CorrelationID)
		case domain.KindAvailability:
			writeProblem(w, http.StatusConflict, "Unavailable", de.Message, de.CorrelationID)
		case domain.KindConflict:
			writeProblem(w, http.StatusConflict, "Conflict", de.Message, de.CorrelationID)
		default:
			writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "a backing service is unavailable", de.CorrelationID)
		}
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "resource not found", "")
	case errors.Is(err, domain.ErrHoldExpired):
		writeProblem(w, http.StatusGone, "Hold Expired", "the hold has expired; allocate again", "")
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "unexpected error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// ---- request decoding ----

func parseDateRange(checkIn, checkOut string) (domain.DateRange, error) {
	ci, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		return domain.DateRange{}, domain.NewValidation("check_in must be a YYYY-MM-DD date")
	}
	co, err := time.Parse("2006-01-02", checkOut)
	if err != nil {
		return domain.DateRange{}, domain.NewValidation("check_out must be a YYYY-MM-DD date")
	}
	return domain.NewDateRange(ci, co)
}

func parseCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func prefsFromQuery(q map[string][]string) *domain.Preferences {
	get := func(k string) string {
		if vs := q[k]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}
	p := domain.Preferences{
		Amenities:  parseCSV(get("amenities")),
		Views:      parseCSV(get("views")),
		Accessible: get("accessible") == "true",
	}
	empty := len(p.Amenities) == 0 && len(p.Views) == 0 && !p.Accessible
	if v := get("room_type"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.RoomTypeID = &id
			empty = false
		}
	}
	if v := get("floor"); v != "" {
		if f, err := strconv.Atoi(v); err == nil {
			p.Floor = &f
			empty = false
		}
	}
	if v := get("wing"); v != "" {
		p.Wing = &v
		empty = false
	}
	if empty {
		return nil
	}
	return &p
}

// ---- handlers ----

func (h *Handlers) queryAvailability(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, domain.NewValidation("property id must be a number"))
		return
	}
	q := r.URL.Query()
	rng, err := parseDateRange(q.Get("check_in"), q.Get("check_out"))
	if err != nil {
		writeError(w, err)
		return
	}
	guests := 1
	if v := q.Get("guests"); v != "" {
		guests, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, domain.NewValidation("guests must be a number"))
			return
		}
	}

	view, err := h.Svc.QueryAvailability(r.Context(), propertyID, rng, guests, prefsFromQuery(q))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type preferencesRequest struct {
	RoomTypeID *int64   `json:"room_type_id,omitempty" validate:"omitempty,gt=0"`
	Floor      *int     `json:"floor,omitempty"`
	Wing       *string  `json:"wing,omitempty" validate:"omitempty,max=32"`
	Amenities  []string `json:"amenities,omitempty" validate:"max=32,dive,max=64"`
	Accessible bool     `json:"accessible,omitempty"`
	Views      []string `json:"views,omitempty" validate:"max=32,dive,max=64"`
}

type allocateRequest struct {
	PropertyID     int64               `json:"property_id" validate:"required,gt=0"`
	CheckIn        string              `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut       string              `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests         int                 `json:"guests" validate:"required,min=1"`
	Preferences    *preferencesRequest `json:"preferences,omitempty"`
	SpecialRequest string              `json:"special_request,omitempty" validate:"max=1000"`
	AllowWaitlist  bool                `json:"allow_waitlist,omitempty"`
	RequestedBy    string              `json:"requested_by,omitempty" validate:"max=128"`
}

func (h *Handlers) allocate(w http.ResponseWriter, r *http.Request) {
	var body allocateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.NewValidation("request body must be valid JSON"))
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, domain.NewValidation("invalid request: %v", err))
		return
	}
	rng, err := parseDateRange(body.CheckIn, body.CheckOut)
	if err != nil {
		writeError(w, err)
		return
	}

	req := domain.AllocationRequest{
		PropertyID:     body.PropertyID,
		Range:          rng,
		Guests:         body.Guests,
		SpecialRequest: body.SpecialRequest,
		AllowWaitlist:  body.AllowWaitlist,
		RequestedBy:    body.RequestedBy,
	}
	if p := body.Preferences; p != nil {
		req.Preferences = &domain.Preferences{
			RoomTypeID: p.RoomTypeID,
			Floor:      p.Floor,
			Wing:       p.Wing,
			Amenities:  p.Amenities,
			Accessible: p.Accessible,
			Views:      p.Views,
		}
	}

	res, err := h.Svc.AllocateRoom(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if !res.Success {
		// Structured unavailability: alternatives and the overbooking flag
		// travel in the body, not in a bare error.
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) releaseHold(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "id")
	if holdID == "" {
		writeError(w, domain.NewValidation("hold id is required"))
		return
	}
	if err := h.Svc.ReleaseHold(r.Context(), holdID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) confirmHold(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "id")
	if holdID == "" {
		writeError(w, domain.NewValidation("hold id is required"))
		return
	}
	hold, err := h.Svc.ConfirmHold(r.Context(), holdID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hold)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,max=16"`
}

func (h *Handlers) updateRoomStatus(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, domain.NewValidation("room id must be a number"))
		return
	}
	var body statusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.NewValidation("request body must be valid JSON"))
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, domain.NewValidation("invalid request: %v", err))
		return
	}
	if err := h.Svc.UpdateRoomStatus(r.Context(), roomID, domain.RoomStatus(body.Status)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) upgradeOptions(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, domain.NewValidation("property id must be a number"))
		return
	}
	q := r.URL.Query()
	currentType, err := strconv.ParseInt(q.Get("room_type"), 10, 64)
	if err != nil {
		writeError(w, domain.NewValidation("room_type must be a number"))
		return
	}
	rng, err := parseDateRange(q.Get("check_in"), q.Get("check_out"))
	if err != nil {
		writeError(w, err)
		return
	}
	guests := 1
	if v := q.Get("guests"); v != "" {
		guests, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, domain.NewValidation("guests must be a number"))
			return
		}
	}

	ups, err := h.Svc.UpgradeOptions(r.Context(), propertyID, currentType, rng, guests)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ups)
}
