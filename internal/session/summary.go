package session

import (
	"strings"
	"time"
)

// Counters are the per-session totals kept by the tracker.
type Counters struct {
	PageViews int
	Clicks    int
	Scrolls   int
}

// Timeline holds what a session summary is computed from.
type Timeline struct {
	Start        time.Time
	LastActivity time.Time
	End          time.Time
	TotalIdle    time.Duration
}

// Summary is the body of a session_end event.
type Summary struct {
	Duration   time.Duration
	ActiveTime time.Duration
	IsBounce   bool
}

// Summarize computes duration and active time. Active time is the span to
// the last activity minus idle time, clamped to [0, duration].
func Summarize(tl Timeline, c Counters) Summary {
	s := Summary{
		Duration: nonNegative(tl.End.Sub(tl.Start)),
		IsBounce: c.PageViews == 1,
	}
	last := tl.LastActivity
	if last.Before(tl.Start) {
		last = tl.Start
	}
	active := nonNegative(last.Sub(tl.Start) - tl.TotalIdle)
	if active > s.Duration {
		active = s.Duration
	}
	s.ActiveTime = active
	return s
}

// IsConversion reports whether a custom event name marks a conversion.
func IsConversion(name string) bool {
	return strings.Contains(strings.ToLower(name), "convert")
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
