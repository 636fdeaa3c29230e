// api/models/visit.go
package models

import (
	"time"
)

// DateLayout is the calendar-date format used across the API.
const DateLayout = "2006-01-02"

const dayWindow = 24 * time.Hour

// VisitRecord represents a single recorded page visit.
type VisitRecord struct {
	ID          string    `json:"id"`
	VisitorHash string    `json:"visitorHash"`
	PagePath    string    `json:"pagePath"`
	VisitedAt   time.Time `json:"visitedAt"`
	VisitDate   time.Time `json:"visitDate"`
}

// TrackVisitRequest is the body of a track-visit call. PagePath may be
// omitted, in which case the handler falls back to the Referer header.
type TrackVisitRequest struct {
	PagePath string `json:"page_path"`
}

// DailyVisitorCount is the unique-visitor count reported for one day.
type DailyVisitorCount struct {
	Date           string `json:"date"`
	UniqueVisitors uint64 `json:"unique_visitors"`
}

// DailyWindow is a 24-hour counting window. A trailing window is anchored
// at its end instant and covers (Start, End]: a visit exactly 24 hours
// before End is already outside it. A calendar-day window covers
// [Start, End) instead, so the day's own midnight belongs to the day and
// the next day's midnight does not.
type DailyWindow struct {
	Start time.Time
	End   time.Time
	Date  string
	// WholeDay marks a calendar-day window and selects the [Start, End)
	// boundary rule.
	WholeDay bool
}

// TrailingDay returns the 24-hour window ending at ref, labeled with ref's
// UTC calendar date.
func TrailingDay(ref time.Time) DailyWindow {
	ref = ref.UTC()
	return DailyWindow{
		Start: ref.Add(-dayWindow),
		End:   ref,
		Date:  ref.Format(DateLayout),
	}
}

// CalendarDay returns the window covering the full UTC calendar day of d,
// its own midnight included.
func CalendarDay(d time.Time) DailyWindow {
	d = d.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return DailyWindow{
		Start:    start,
		End:      start.Add(dayWindow),
		Date:     start.Format(DateLayout),
		WholeDay: true,
	}
}

// Contains reports whether a visit at t falls inside the window.
func (w DailyWindow) Contains(t time.Time) bool {
	t = t.UTC()
	if w.WholeDay {
		return !t.Before(w.Start) && t.Before(w.End)
	}
	return t.After(w.Start) && !t.After(w.End)
}
