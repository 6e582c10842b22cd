package tracker

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/gosight/gosight/tracker/internal/dom"
	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/heuristics"
	"github.com/gosight/gosight/tracker/internal/session"
)

func (t *Tracker) handleScrollLocked(*dom.Event) {
	if !t.cfg.TrackScrolls && !t.cfg.TrackScrollDepth {
		return
	}
	t.armLocked(&t.scrollTimer, t.cfg.Debounce(), t.emitScrollLocked)
}

func (t *Tracker) emitScrollLocked() {
	doc := t.env.Document()
	top, height, viewport := doc.ScrollTop(), doc.ScrollHeight(), t.env.InnerHeight()
	pct := heuristics.ScrollPercentage(top, height, viewport)
	t.counters.Scrolls++

	if t.cfg.TrackScrolls {
		t.logLocked(&event.Scroll{
			Base:             base(event.TypeScroll),
			ScrollTop:        top,
			ScrollPercentage: pct,
			DocumentHeight:   height,
			ViewportHeight:   viewport,
		})
	}
	if t.cfg.TrackScrollDepth {
		for _, reached := range t.depth.Observe(pct, t.cfg.ScrollDepthThresholds, t.now()) {
			t.logLocked(&event.ScrollDepth{
				Base:          base(event.TypeScrollDepth),
				Depth:         reached.Depth,
				TimeToReachMs: reached.TimeToReach.Milliseconds(),
			})
		}
	}
}

func (t *Tracker) handleResizeLocked(*dom.Event) {
	if !t.cfg.TrackResize {
		return
	}
	t.armLocked(&t.resizeTimer, t.cfg.Debounce(), func() {
		if !t.cfg.TrackResize {
			return
		}
		t.logLocked(&event.Resize{
			Base:   base(event.TypeResize),
			Width:  t.env.InnerWidth(),
			Height: t.env.InnerHeight(),
		})
	})
}

func (t *Tracker) emitPageViewLocked() {
	t.counters.PageViews++
	doc := t.env.Document()
	loc := t.env.Location()

	pv := &event.PageView{
		Base:         base(event.TypePageView),
		Title:        doc.Title(),
		PreviousPage: t.previousPage,
	}
	if u, err := url.Parse(loc); err == nil {
		pv.Path = u.Path
	}
	pv.Referrer = session.ResolveReferrer(loc, t.previousPage, doc.Referrer())
	t.logLocked(pv)
}

// checkURLChangeLocked treats a changed location as a new page.
func (t *Tracker) checkURLChangeLocked() {
	loc := t.env.Location()
	if loc == t.currentURL {
		return
	}
	now := t.now()
	t.previousPage = t.currentURL
	t.currentURL = loc
	t.dead.Signal(heuristics.AnySelector, now)
	t.depth.Reset(now)
	if t.cfg.TrackPageViews {
		t.emitPageViewLocked()
	}
}

func (t *Tracker) handlePopStateLocked(*dom.Event) {
	t.checkURLChangeLocked()
}

func (t *Tracker) handleMutationsLocked(recs []dom.MutationRecord) {
	now := t.now()
	for _, rec := range recs {
		t.dead.Signal(heuristics.AnySelector, now)
		if rec.Target != nil {
			t.dead.Signal(heuristics.SelectorFor(rec.Target), now)
		}
	}
	t.checkURLChangeLocked()
}

func (t *Tracker) handleVisibilityLocked(*dom.Event) {
	state := t.env.Document().VisibilityState()
	if t.cfg.TrackVisibility {
		t.logLocked(&event.VisibilityChange{
			Base:            base(event.TypeVisibilityChange),
			VisibilityState: state,
		})
	}
	if state == "hidden" {
		t.armLocked(&t.hiddenTimer, hiddenSessionEndDelay, func() {
			t.endSessionLocked(event.ExitTabHidden)
		})
		return
	}
	t.hiddenTimer.stop()
}

func (t *Tracker) handleCopyLocked(ev *dom.Event) {
	if !t.cfg.TrackCopy {
		return
	}
	t.logLocked(&event.Copy{
		Base:       base(event.TypeCopy),
		Element:    t.describeLocked(ev.Target),
		TextLength: utf8.RuneCountInString(t.env.Document().SelectionText()),
	})
}

func (t *Tracker) handlePrintLocked(*dom.Event) {
	if !t.cfg.TrackPrint {
		return
	}
	t.logLocked(&event.Print{
		Base:  base(event.TypePrint),
		Title: t.env.Document().Title(),
	})
}

func (t *Tracker) handleErrorLocked(ev *dom.Event) {
	if !t.cfg.TrackErrors {
		return
	}
	e := &event.Error{
		Base:      base(event.TypeError),
		Message:   ev.Message,
		Filename:  ev.Filename,
		Line:      ev.Line,
		Column:    ev.Column,
		Stack:     ev.Stack,
		ErrorKind: event.ErrorKindError,
	}
	if ev.Type == "unhandledrejection" {
		e.ErrorKind = event.ErrorKindUnhandledRejection
		if e.Message == "" {
			e.Message = ev.Reason
		}
	}
	if e.Message == "" {
		e.Message = "Unknown error"
	}
	t.logLocked(e)
}

func (t *Tracker) handleMediaLocked(ev *dom.Event) {
	if !t.cfg.TrackMedia || ev.Target == nil || ev.Media == nil {
		return
	}
	info := t.describeLocked(ev.Target)
	key := ev.Media.Src
	if key == "" {
		key = info.Selector
	}
	media := func(typ event.Type, progress int) *event.Media {
		return &event.Media{
			Base:        base(typ),
			MediaType:   strings.ToLower(ev.Target.TagName()),
			Source:      ev.Media.Src,
			CurrentTime: ev.Media.CurrentTime,
			Duration:    ev.Media.Duration,
			Progress:    progress,
			Element:     info,
		}
	}

	switch ev.Type {
	case "play":
		t.logLocked(media(event.TypeMediaPlay, 0))
	case "pause":
		t.logLocked(media(event.TypeMediaPause, 0))
	case "ended":
		t.media.Reset(key)
		t.logLocked(media(event.TypeMediaComplete, 100))
	case "timeupdate":
		pct := heuristics.Progress(ev.Media.CurrentTime, ev.Media.Duration)
		for _, threshold := range t.media.Observe(key, pct, t.cfg.MediaProgressThresholds) {
			t.logLocked(media(event.TypeMediaProgress, threshold))
		}
	}
}
