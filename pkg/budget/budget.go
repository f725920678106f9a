// Package budget models the time allocated to a task and the time spent on it.
package budget

import (
	"errors"
	"fmt"
	"math"
)

// SecondsPerHour converts between the allocated (hours) and spent (seconds) units.
const SecondsPerHour = 3600

// ErrInvalidHours is returned when a negative or non-finite hour value is formatted.
var ErrInvalidHours = errors.New("hours must be a finite, non-negative number")

// Budget is an immutable pairing of allocated hours and spent seconds.
type Budget struct {
	AllocatedHours float64 `json:"allocated_hours"`
	SpentSeconds   float64 `json:"spent_seconds"`
}

// New returns a budget with the given allocation and spent time.
func New(allocatedHours, spentSeconds float64) Budget {
	return Budget{AllocatedHours: allocatedHours, SpentSeconds: spentSeconds}
}

// AllocatedSeconds returns the allocation in seconds, clamped at zero.
func (b Budget) AllocatedSeconds() float64 {
	return math.Max(0, b.AllocatedHours) * SecondsPerHour
}

// SpentHours returns the spent time in hours, clamped at zero.
func (b Budget) SpentHours() float64 {
	return math.Max(0, b.SpentSeconds) / SecondsPerHour
}

// Remaining returns the unspent allocation in seconds. Never negative.
func (b Budget) Remaining() float64 {
	return math.Max(0, b.AllocatedSeconds()-math.Max(0, b.SpentSeconds))
}

// RemainingHours is Remaining expressed in hours.
func (b Budget) RemainingHours() float64 {
	return b.Remaining() / SecondsPerHour
}

// Percentage returns how much of the allocation has been spent, in [0, 100].
// A zero allocation reports 0 rather than dividing by zero.
func (b Budget) Percentage() float64 {
	alloc := b.AllocatedSeconds()
	if alloc <= 0 {
		return 0
	}
	pct := 100 * math.Max(0, b.SpentSeconds) / alloc
	return math.Min(100, pct)
}

// Overrun reports whether more time was spent than allocated.
func (b Budget) Overrun() bool {
	return b.SpentSeconds > b.AllocatedSeconds()
}

// Add returns a copy of b with seconds added to the spent time.
func (b Budget) Add(seconds float64) Budget {
	b.SpentSeconds += seconds
	return b
}

// String renders the budget as "spent / allocated".
func (b Budget) String() string {
	return fmt.Sprintf("%s / %s", MustFormat(b.SpentHours()), MustFormat(b.AllocatedHours))
}

// FormatHoursMinutes renders fractional hours as "Xh", "Ym" or "Xh Ym".
// Minutes are rounded and a rounded value of 60 carries into the hour.
func FormatHoursMinutes(hours float64) (string, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return "", fmt.Errorf("format %v: %w", hours, ErrInvalidHours)
	}

	h := math.Floor(hours)
	m := math.Round((hours - h) * 60)
	if m == 60 {
		h++
		m = 0
	}

	switch {
	case h == 0:
		return fmt.Sprintf("%dm", int64(m)), nil
	case m == 0:
		return fmt.Sprintf("%dh", int64(h)), nil
	default:
		return fmt.Sprintf("%dh %dm", int64(h), int64(m)), nil
	}
}

// MustFormat is FormatHoursMinutes for display paths: invalid input clamps to "0m".
func MustFormat(hours float64) string {
	s, err := FormatHoursMinutes(hours)
	if err != nil {
		return "0m"
	}
	return s
}
