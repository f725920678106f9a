package budget

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatHoursMinutes(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{2, "2h"},
		{1, "1h"},
		{0.5, "30m"},
		{0.25, "15m"},
		{1.5, "1h 30m"},
		{2.75, "2h 45m"},
		{0, "0m"},
		{0.999, "1h"},
		{1.9999, "2h"},
		{0.01, "1m"},
		{10.0 / 60, "10m"},
	}

	for _, tt := range tests {
		got, err := FormatHoursMinutes(tt.hours)
		require.NoError(t, err, "hours=%v", tt.hours)
		assert.Equal(t, tt.want, got, "hours=%v", tt.hours)
	}
}

func TestFormatHoursMinutesRejectsInvalid(t *testing.T) {
	for _, h := range []float64{-1, -0.01, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := FormatHoursMinutes(h)
		assert.ErrorIs(t, err, ErrInvalidHours, "hours=%v", h)
	}
	assert.Equal(t, "0m", MustFormat(-3))
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name string
		b    Budget
		want float64
	}{
		{"zero allocation", New(0, 100), 0},
		{"half spent", New(1, 1800), 50},
		{"exactly spent", New(2, 7200), 100},
		{"overrun clamps", New(1, 7200), 100},
		{"negative spent clamps", New(1, -30), 0},
		{"negative allocation", New(-1, 10), 0},
		{"nothing spent", New(3, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.b.Percentage(), 1e-9)
		})
	}
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 3600.0, New(1, 0).Remaining())
	assert.Equal(t, 1800.0, New(1, 1800).Remaining())
	assert.Equal(t, 0.0, New(1, 4000).Remaining())
	assert.Equal(t, 3600.0, New(1, -50).Remaining())
	assert.Equal(t, 0.0, New(-2, 0).Remaining())
	assert.InDelta(t, 0.5, New(1, 1800).RemainingHours(), 1e-9)
}

func TestAddIsValueSemantics(t *testing.T) {
	b := New(2, 10)
	c := b.Add(5)

	assert.Equal(t, 10.0, b.SpentSeconds)
	assert.Equal(t, 15.0, c.SpentSeconds)
	assert.Equal(t, 2.0, c.AllocatedHours)
}

func TestOverrunAndString(t *testing.T) {
	assert.False(t, New(1, 3600).Overrun())
	assert.True(t, New(1, 3601).Overrun())
	assert.Equal(t, "1h 30m / 4h", New(4, 5400).String())
	assert.Equal(t, "0m / 3h", New(3, 0).String())
}
