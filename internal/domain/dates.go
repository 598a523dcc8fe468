package domain

import "time"

// Day normalizes t to midnight UTC. All stay dates are whole nights;
// anything finer than a day is noise from the caller.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is a half-open stay interval [CheckIn, CheckOut).
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	r := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if !r.CheckOut.After(r.CheckIn) {
		return DateRange{}, NewValidation("check-out must be strictly after check-in")
	}
	return r, nil
}

func (r DateRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Overlaps reports whether [a,b) and [c,d) intersect: a < d && c < b.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(r.CheckOut)
}

// ContainsNight reports whether the night starting at d falls inside the range.
func (r DateRange) ContainsNight(d time.Time) bool {
	d = Day(d)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// EachNight returns the start date of every night in the range, in order.
func (r DateRange) EachNight() []time.Time {
	nights := make([]time.Time, 0, r.Nights())
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}
