package domain

import (
	"fmt"
	"math"
)

// GestationalAge is the obstetric age of a fetus: completed weeks since the
// last menstrual period plus residual days (0-6). Immutable value type.
type GestationalAge struct {
	weeks int
	days  int
}

// NewGestationalAge constructs a gestational age from explicit weeks and days.
func NewGestationalAge(weeks, days int) (GestationalAge, error) {
	if weeks < 0 {
		return GestationalAge{}, fmt.Errorf("gestational age: weeks must be non-negative, got %d", weeks)
	}
	if days < 0 || days > 6 {
		return GestationalAge{}, fmt.Errorf("gestational age: days must be in [0, 6], got %d", days)
	}
	return GestationalAge{weeks: weeks, days: days}, nil
}

// GestationalAgeFromWeeks converts a continuous week count into completed
// weeks plus residual days. The fractional part is truncated to whole days,
// e.g. 12.5 -> 12w3d, 20.86 -> 20w6d.
func GestationalAgeFromWeeks(weeks float64) GestationalAge {
	w := int(math.Floor(weeks))
	if w < 0 {
		w = 0
	}
	d := int((weeks - float64(w)) * 7)
	if d > 6 {
		d = 6
	}
	if d < 0 {
		d = 0
	}
	return GestationalAge{weeks: w, days: d}
}

// Weeks returns the number of completed weeks.
func (g GestationalAge) Weeks() int {
	return g.weeks
}

// Days returns the residual days beyond completed weeks (0-6).
func (g GestationalAge) Days() int {
	return g.days
}

// TotalWeeks returns the continuous week count, weeks + days/7.
func (g GestationalAge) TotalWeeks() float64 {
	return float64(g.weeks) + float64(g.days)/7.0
}

// String renders the conventional obstetric notation, e.g. "34w3d".
func (g GestationalAge) String() string {
	return fmt.Sprintf("%dw%dd", g.weeks, g.days)
}
