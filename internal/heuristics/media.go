package heuristics

import "sort"

// MediaProgress fires each progress threshold once per media element.
type MediaProgress struct {
	seen map[string]map[int]bool
}

func NewMediaProgress() *MediaProgress {
	return &MediaProgress{seen: make(map[string]map[int]bool)}
}

// Observe returns the thresholds newly crossed by key at progress percent.
func (m *MediaProgress) Observe(key string, progress float64, thresholds []int) []int {
	seen, ok := m.seen[key]
	if !ok {
		seen = make(map[int]bool)
		m.seen[key] = seen
	}
	sorted := append([]int(nil), thresholds...)
	sort.Ints(sorted)

	var out []int
	for _, t := range sorted {
		if float64(t) <= progress && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Reset forgets key, so a replay fires its thresholds again.
func (m *MediaProgress) Reset(key string) { delete(m.seen, key) }

// Progress returns current/duration as a percentage, 0 for unknown duration.
func Progress(current, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	p := current / duration * 100
	if p > 100 {
		return 100
	}
	return p
}
