package heuristics

import "time"

// ActivityEvents are the DOM events that count as user activity.
var ActivityEvents = []string{"mousemove", "mousedown", "keydown", "scroll", "touchstart", "click", "wheel"}

// Idle tracks idle periods. The caller owns the timer: it calls Start when
// the idle timeout elapses and Activity on every activity event.
type Idle struct {
	idle         bool
	since        time.Time
	lastActivity time.Time
	total        time.Duration
}

func NewIdle(now time.Time) *Idle {
	return &Idle{lastActivity: now}
}

// Start enters the idle state. It reports false if already idle.
func (i *Idle) Start(now time.Time) bool {
	if i.idle {
		return false
	}
	i.idle = true
	i.since = now
	return true
}

// Activity records activity. When it ends an idle period it returns the
// period's length and true.
func (i *Idle) Activity(now time.Time) (time.Duration, bool) {
	i.lastActivity = now
	if !i.idle {
		return 0, false
	}
	i.idle = false
	d := now.Sub(i.since)
	if d < 0 {
		d = 0
	}
	i.total += d
	return d, true
}

func (i *Idle) IsIdle() bool { return i.idle }

// TotalIdle is the accumulated length of finished idle periods.
func (i *Idle) TotalIdle() time.Duration { return i.total }

func (i *Idle) LastActivity() time.Time { return i.lastActivity }
