package heuristics

import (
	"container/ring"
	"strings"
	"time"

	"github.com/gosight/gosight/tracker/internal/event"
)

const (
	ErrorClickDelay  = 100 * time.Millisecond
	ErrorClickWindow = time.Second
	recentClickSlots = 100
)

// PendingClick is a click that may still be correlated with an error.
type PendingClick struct {
	ID         uint64
	Element    event.ElementInfo
	At         time.Time
	correlated bool
}

// ErrorSample is an error observed in the event queue.
type ErrorSample struct {
	Message string
	At      time.Time
}

// ErrorClicks keeps the most recent clicks in a ring and pairs each with at
// most one error that follows it within ErrorClickWindow.
type ErrorClicks struct {
	recent *ring.Ring
	seq    uint64
}

func NewErrorClicks() *ErrorClicks {
	return &ErrorClicks{recent: ring.New(recentClickSlots)}
}

// RecordClick stores a click and returns its id.
func (d *ErrorClicks) RecordClick(el event.ElementInfo, at time.Time) uint64 {
	d.seq++
	d.recent.Value = &PendingClick{ID: d.seq, Element: el, At: at}
	d.recent = d.recent.Next()
	return d.seq
}

// Check looks for the first error in samples that follows click id within
// the window. It is run shortly after the click against the queued errors.
// Samples stamped with the click's own millisecond are skipped: the queue
// cannot tell whether they were logged before or after the click.
func (d *ErrorClicks) Check(id uint64, samples []ErrorSample) (PendingClick, ErrorSample, bool) {
	click := d.find(id)
	if click == nil || click.correlated {
		return PendingClick{}, ErrorSample{}, false
	}
	for _, s := range samples {
		if s.At.After(click.At) && within(click.At, s.At) {
			click.correlated = true
			return *click, s, true
		}
	}
	return PendingClick{}, ErrorSample{}, false
}

// CorrelateError pairs an error logged at errAt with the most recent
// uncorrelated click preceding it within the window.
func (d *ErrorClicks) CorrelateError(errAt time.Time) (PendingClick, bool) {
	var match *PendingClick
	d.recent.Do(func(v any) {
		click, ok := v.(*PendingClick)
		if !ok || click.correlated || !within(click.At, errAt) {
			return
		}
		if match == nil || click.At.After(match.At) {
			match = click
		}
	})
	if match == nil {
		return PendingClick{}, false
	}
	match.correlated = true
	return *match, true
}

func (d *ErrorClicks) find(id uint64) *PendingClick {
	var found *PendingClick
	d.recent.Do(func(v any) {
		if click, ok := v.(*PendingClick); ok && click.ID == id {
			found = click
		}
	})
	return found
}

func within(clickAt, errAt time.Time) bool {
	diff := errAt.Sub(clickAt)
	return diff >= 0 && diff <= ErrorClickWindow
}

var errorCategories = []struct {
	category event.ErrorCategory
	needles  []string
}{
	{event.ErrorCategoryValidation, []string{"validation", "invalid", "required", "must be", "format"}},
	{event.ErrorCategoryTimeout, []string{"timeout", "timed out", "time out"}},
	{event.ErrorCategoryNetwork, []string{"network", "fetch", "xhr", "failed to load", "cors", "connection", "offline"}},
	{event.ErrorCategoryJavaScript, []string{"undefined", "null", "is not a function", "typeerror", "referenceerror", "syntaxerror", "rangeerror"}},
}

// CategorizeError classifies an error message by substring.
func CategorizeError(message string) event.ErrorCategory {
	msg := strings.ToLower(message)
	for _, c := range errorCategories {
		for _, needle := range c.needles {
			if strings.Contains(msg, needle) {
				return c.category
			}
		}
	}
	return event.ErrorCategoryOther
}
