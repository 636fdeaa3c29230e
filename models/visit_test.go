package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrailingDay(t *testing.T) {
	ref := time.Date(2025, 3, 8, 15, 30, 0, 0, time.UTC)
	w := TrailingDay(ref)

	assert.Equal(t, ref.Add(-24*time.Hour), w.Start)
	assert.Equal(t, ref, w.End)
	assert.Equal(t, "2025-03-08", w.Date)
}

func TestTrailingDayNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 03:00 on the 9th in UTC+5 is still 22:00 on the 8th in UTC.
	ref := time.Date(2025, 3, 9, 3, 0, 0, 0, loc)

	w := TrailingDay(ref)
	assert.Equal(t, "2025-03-08", w.Date)
}

func TestCalendarDay(t *testing.T) {
	w := CalendarDay(time.Date(2025, 3, 8, 15, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, "2025-03-08", w.Date)
}

func TestDailyWindowContains(t *testing.T) {
	ref := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	w := TrailingDay(ref)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"one second before the end", ref.Add(-time.Second), true},
		{"at the window end", ref, true},
		{"after the window end", ref.Add(time.Second), false},
		{"just inside the far edge", ref.Add(-24*time.Hour + time.Second), true},
		{"exactly 24 hours old", ref.Add(-24 * time.Hour), false},
		{"older than the window", ref.Add(-25 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(tt.at))
		})
	}
}

func TestCalendarDayContains(t *testing.T) {
	w := CalendarDay(time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"at the day's own midnight", time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), true},
		{"first second of the day", time.Date(2025, 3, 8, 0, 0, 1, 0, time.UTC), true},
		{"last second of the day", time.Date(2025, 3, 8, 23, 59, 59, 0, time.UTC), true},
		{"just before the day starts", time.Date(2025, 3, 7, 23, 59, 59, 0, time.UTC), false},
		{"at the next day's midnight", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(tt.at))
		})
	}
}
