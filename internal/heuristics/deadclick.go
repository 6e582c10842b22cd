package heuristics

import (
	"strings"
	"time"

	"github.com/gosight/gosight/tracker/internal/dom"
)

const (
	DeadClickWait = 500 * time.Millisecond

	// AnySelector records a page-wide visibility signal.
	AnySelector = "*"
)

// InteractiveSelector matches elements that are expected to respond to clicks.
const InteractiveSelector = `button, a, input, select, textarea, label, summary, [role="button"], [role="link"], [onclick], [data-action]`

var clickableClassHints = []string{"btn", "button", "link", "clickable", "interactive", "card", "tab"}

// IsInteractive reports whether el or one of its ancestors is interactive.
func IsInteractive(el dom.Element) bool {
	return el != nil && dom.Closest(el, InteractiveSelector) != nil
}

// DeadClicks records visibility signals (DOM mutations, URL changes) so a
// pending click can be checked once its wait has elapsed.
type DeadClicks struct {
	signals map[string]time.Time
}

func NewDeadClicks() *DeadClicks {
	return &DeadClicks{signals: make(map[string]time.Time)}
}

// Signal records a visible change attributed to selector, or to the whole
// page when selector is AnySelector.
func (d *DeadClicks) Signal(selector string, at time.Time) {
	if prev, ok := d.signals[selector]; ok && prev.After(at) {
		return
	}
	d.signals[selector] = at
}

// Responded reports whether a signal for selector or the page landed between
// clickAt and now.
func (d *DeadClicks) Responded(selector string, clickAt, now time.Time) bool {
	for _, key := range []string{selector, AnySelector} {
		at, ok := d.signals[key]
		if ok && !at.Before(clickAt) && !at.After(now) {
			return true
		}
	}
	return false
}

// Prune drops signals older than before.
func (d *DeadClicks) Prune(before time.Time) {
	for key, at := range d.signals {
		if at.Before(before) {
			delete(d.signals, key)
		}
	}
}

// ExpectedBehavior is a best-effort guess at what the user wanted from a
// click on a non-interactive element.
func ExpectedBehavior(el dom.Element) string {
	if el == nil {
		return "unknown"
	}
	for _, c := range el.Classes() {
		lc := strings.ToLower(c)
		for _, hint := range clickableClassHints {
			if strings.Contains(lc, hint) {
				return "click_action"
			}
		}
	}
	switch el.TagName() {
	case "img", "svg", "picture", "video", "canvas":
		return "open_media"
	case "h1", "h2", "h3", "h4", "h5", "h6", "li":
		return "navigate"
	}
	if _, ok := el.Attribute("title"); ok {
		return "show_details"
	}
	text := strings.TrimSpace(el.TextContent())
	if text != "" && len(text) <= 30 {
		return "navigate"
	}
	return "unknown"
}
