package heuristics

import "time"

const (
	RageClickWindow    = 2 * time.Second
	RageClickThreshold = 3
	RageClickEviction  = 5 * time.Second
)

// RageClicks counts bursts of clicks per selector. A burst starts at its first
// click and lasts RageClickWindow; reaching RageClickThreshold inside it fires
// and resets the burst, so a long frenzy fires once per three clicks.
type RageClicks struct {
	entries map[string]*rageEntry
}

type rageEntry struct {
	count int
	first time.Time
	last  time.Time
}

func NewRageClicks() *RageClicks {
	return &RageClicks{entries: make(map[string]*rageEntry)}
}

// Observe records a click on selector at now and returns the burst count
// and whether it reached the threshold.
func (r *RageClicks) Observe(selector string, now time.Time) (int, bool) {
	r.evict(now)

	e, ok := r.entries[selector]
	if !ok || now.Sub(e.first) >= RageClickWindow {
		e = &rageEntry{first: now}
		r.entries[selector] = e
	}
	e.count++
	e.last = now

	if e.count >= RageClickThreshold {
		count := e.count
		delete(r.entries, selector)
		return count, true
	}
	return e.count, false
}

// Len reports how many selectors are being tracked.
func (r *RageClicks) Len() int { return len(r.entries) }

func (r *RageClicks) evict(now time.Time) {
	for sel, e := range r.entries {
		if now.Sub(e.last) > RageClickEviction {
			delete(r.entries, sel)
		}
	}
}
