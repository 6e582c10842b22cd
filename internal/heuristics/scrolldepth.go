package heuristics

import (
	"sort"
	"time"
)

// DepthReached is a scroll-depth threshold crossed for the first time.
type DepthReached struct {
	Depth       int
	TimeToReach time.Duration
}

// ScrollDepth remembers which thresholds already fired on the current page
// load.
type ScrollDepth struct {
	seen     map[int]bool
	loadedAt time.Time
}

func NewScrollDepth(loadedAt time.Time) *ScrollDepth {
	return &ScrollDepth{seen: make(map[int]bool), loadedAt: loadedAt}
}

// Reset starts a new page load.
func (s *ScrollDepth) Reset(loadedAt time.Time) {
	s.seen = make(map[int]bool)
	s.loadedAt = loadedAt
}

// Observe returns the thresholds at or below percentage that have not fired
// yet, lowest first, and marks them as fired.
func (s *ScrollDepth) Observe(percentage float64, thresholds []int, now time.Time) []DepthReached {
	sorted := append([]int(nil), thresholds...)
	sort.Ints(sorted)

	var out []DepthReached
	for _, t := range sorted {
		if float64(t) > percentage || s.seen[t] {
			continue
		}
		s.seen[t] = true
		out = append(out, DepthReached{Depth: t, TimeToReach: now.Sub(s.loadedAt)})
	}
	return out
}

// ScrollPercentage computes how far down the page the viewport is. A page
// that does not scroll reports 0.
func ScrollPercentage(scrollTop, documentHeight, viewportHeight float64) float64 {
	denom := documentHeight - viewportHeight
	if denom <= 0 {
		return 0
	}
	pct := scrollTop / denom * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
