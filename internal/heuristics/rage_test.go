package heuristics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestRageClickThreshold(t *testing.T) {
	r := NewRageClicks()

	_, fired := r.Observe("#buy", at(0))
	assert.False(t, fired)
	_, fired = r.Observe("#buy", at(300))
	assert.False(t, fired)
	count, fired := r.Observe("#buy", at(600))
	assert.True(t, fired)
	assert.Equal(t, 3, count)

	// the burst resets after firing
	count, fired = r.Observe("#buy", at(900))
	assert.False(t, fired)
	assert.Equal(t, 1, count)
}

func TestRageClickWindowExpiry(t *testing.T) {
	r := NewRageClicks()
	for _, ms := range []int{0, 1500, 2600} {
		_, fired := r.Observe("#buy", at(ms))
		assert.False(t, fired, "click at %dms", ms)
	}
}

func TestRageClickSelectorsAreIndependent(t *testing.T) {
	r := NewRageClicks()
	r.Observe("#a", at(0))
	r.Observe("#b", at(10))
	_, fired := r.Observe("#a", at(20))
	assert.False(t, fired)
	assert.Equal(t, 2, r.Len())
}

func TestRageClickEvictsIdleEntries(t *testing.T) {
	r := NewRageClicks()
	r.Observe("#a", at(0))
	r.Observe("#b", at(6000))
	assert.Equal(t, 1, r.Len())
}
