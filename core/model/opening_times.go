package model

import (
	"fmt"
	"time"
)

// HourMin is a wall clock time of day.
type HourMin struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (h HourMin) minutes() int { return h.Hour*60 + h.Minute }

func (h HourMin) String() string { return fmt.Sprintf("%02d:%02d", h.Hour, h.Minute) }

// RegularHours is an opening period on one weekday. End before Begin wraps
// past midnight.
type RegularHours struct {
	Weekday time.Weekday `json:"weekday"`
	Begin   HourMin      `json:"begin"`
	End     HourMin      `json:"end"`
}

// OpeningTimes describes when a charging location can be used.
type OpeningTimes struct {
	Open24Hours bool           `json:"open_24_hours"`
	Regular     []RegularHours `json:"regular_hours,omitempty"`
	FreeText    I18NString     `json:"free_text,omitempty"`
}

// Open24Hours returns opening times for a location that never closes.
func Open24Hours() *OpeningTimes { return &OpeningTimes{Open24Hours: true} }

// IsOpen reports whether the location is open at t. t is interpreted in its
// own location.
func (o *OpeningTimes) IsOpen(t time.Time) bool {
	if o == nil || o.Open24Hours {
		return true
	}
	now := t.Hour()*60 + t.Minute()
	prev := t.Weekday() - 1
	if prev < time.Sunday {
		prev = time.Saturday
	}
	for _, r := range o.Regular {
		begin, end := r.Begin.minutes(), r.End.minutes()
		if end > begin {
			if r.Weekday == t.Weekday() && now >= begin && now < end {
				return true
			}
			continue
		}
		if r.Weekday == t.Weekday() && now >= begin {
			return true
		}
		if r.Weekday == prev && now < end {
			return true
		}
	}
	return false
}

// Equal reports whether both opening times are equal. Two nil values are equal.
func (o *OpeningTimes) Equal(p *OpeningTimes) bool {
	if o == nil || p == nil {
		return o == p
	}
	if o.Open24Hours != p.Open24Hours || len(o.Regular) != len(p.Regular) || !o.FreeText.Equal(p.FreeText) {
		return false
	}
	for i := range o.Regular {
		if o.Regular[i] != p.Regular[i] {
			return false
		}
	}
	return true
}
