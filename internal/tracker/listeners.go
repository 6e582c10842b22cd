package tracker

import (
	"github.com/gosight/gosight/tracker/internal/dom"
	"github.com/gosight/gosight/tracker/internal/heuristics"
)

var mediaEvents = []string{"play", "pause", "ended", "timeupdate"}

// attachLocked registers every capture listener. Handlers check the live
// config when they fire, so UpdateConfig never has to re-register.
func (t *Tracker) attachLocked() {
	doc := t.env.Document()

	t.on(doc, "click", dom.Options{Capture: true}, t.handleClickLocked)
	t.on(doc, "mousemove", dom.Options{Passive: true}, t.handleMouseMoveLocked)
	t.on(doc, "keydown", dom.Options{}, t.handleKeyDownLocked)
	t.on(doc, "submit", dom.Options{Capture: true}, t.handleSubmitLocked)
	t.on(doc, "input", dom.Options{Capture: true}, t.handleInputLocked)
	t.on(doc, "change", dom.Options{Capture: true}, t.handleChangeLocked)
	t.on(doc, "copy", dom.Options{}, t.handleCopyLocked)
	t.on(doc, "visibilitychange", dom.Options{}, t.handleVisibilityLocked)
	for _, typ := range mediaEvents {
		t.on(doc, typ, dom.Options{Capture: true}, t.handleMediaLocked)
	}

	t.on(t.env, "scroll", dom.Options{Passive: true}, t.handleScrollLocked)
	t.on(t.env, "resize", dom.Options{Passive: true}, t.handleResizeLocked)
	t.on(t.env, "error", dom.Options{}, t.handleErrorLocked)
	t.on(t.env, "unhandledrejection", dom.Options{}, t.handleErrorLocked)
	t.on(t.env, "beforeunload", dom.Options{}, t.handleUnloadLocked)
	t.on(t.env, "beforeprint", dom.Options{}, t.handlePrintLocked)
	t.on(t.env, "popstate", dom.Options{}, t.handlePopStateLocked)
	for _, typ := range heuristics.ActivityEvents {
		t.on(t.env, typ, dom.Options{Capture: true, Passive: true}, t.handleActivityLocked)
	}

	if body := doc.Body(); body != nil {
		epoch := t.epoch
		disconnect := t.env.ObserveMutations(body, func(recs []dom.MutationRecord) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if !t.initialized || t.epoch != epoch {
				return
			}
			t.handleMutationsLocked(recs)
		})
		t.removers = append(t.removers, disconnect)
	}
}

// on attaches h so that it runs under the tracker lock and only while the
// tracker that attached it is alive.
func (t *Tracker) on(target dom.Target, eventType string, opts dom.Options, h func(*dom.Event)) {
	epoch := t.epoch
	remove := target.AddEventListener(eventType, func(ev *dom.Event) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if !t.initialized || t.epoch != epoch {
			return
		}
		h(ev)
	}, opts)
	t.removers = append(t.removers, remove)
}
