package tracker

import (
	"strings"
	"time"

	"github.com/gosight/gosight/tracker/internal/dom"
	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/heuristics"
)

const submitButtonSelector = `button[type=submit], input[type=submit], form button:not([type])`

func (t *Tracker) handleClickLocked(ev *dom.Event) {
	target := ev.Target
	if target == nil {
		return
	}
	now := t.now()
	info := t.describeLocked(target)
	t.counters.Clicks++

	if t.cfg.TrackClicks {
		t.logLocked(&event.Click{
			Base:    base(event.TypeClick),
			Element: info,
			PageX:   ev.PageX,
			PageY:   ev.PageY,
			ClientX: ev.ClientX,
			ClientY: ev.ClientY,
		})
	}

	if t.cfg.TrackRageClicks {
		if count, fired := t.rage.Observe(info.Selector, now); fired {
			t.logLocked(&event.RageClick{
				Base:         base(event.TypeRageClick),
				Element:      info,
				ClickCount:   count,
				TimeWindowMs: heuristics.RageClickWindow.Milliseconds(),
				ClientX:      ev.ClientX,
				ClientY:      ev.ClientY,
			})
		}
	}

	if t.cfg.TrackDeadClicks && !heuristics.IsInteractive(target) {
		t.watchDeadClickLocked(target, info, ev, now)
	}

	if t.cfg.TrackErrorClicks {
		t.watchErrorClickLocked(info, now)
	}

	t.classifyLinkLocked(target)

	if t.cfg.TrackSearch {
		if btn := dom.Closest(target, submitButtonSelector); btn != nil {
			if form := dom.Closest(btn, "form"); form != nil {
				t.detectSearchLocked(form, "button_click")
			}
		}
	}
}

func (t *Tracker) watchDeadClickLocked(target dom.Element, info event.ElementInfo, ev *dom.Event, clickAt time.Time) {
	expected := heuristics.ExpectedBehavior(target)
	x, y := ev.ClientX, ev.ClientY
	t.afterLocked(heuristics.DeadClickWait, func() {
		now := t.now()
		defer t.dead.Prune(now.Add(-heuristics.RageClickEviction))
		if !t.cfg.TrackDeadClicks || t.dead.Responded(info.Selector, clickAt, now) {
			return
		}
		t.logLocked(&event.DeadClick{
			Base:             base(event.TypeDeadClick),
			Element:          info,
			ExpectedBehavior: expected,
			ActualBehavior:   "no_response",
			WaitMs:           heuristics.DeadClickWait.Milliseconds(),
			ClientX:          x,
			ClientY:          y,
		})
	})
}

func (t *Tracker) watchErrorClickLocked(info event.ElementInfo, clickAt time.Time) {
	id := t.errClicks.RecordClick(info, clickAt)
	t.afterLocked(heuristics.ErrorClickDelay, func() {
		if !t.cfg.TrackErrorClicks {
			return
		}
		var samples []heuristics.ErrorSample
		for _, e := range t.queue {
			if errEvent, ok := e.(*event.Error); ok {
				samples = append(samples, heuristics.ErrorSample{
					Message: errEvent.Message,
					At:      time.UnixMilli(errEvent.Timestamp),
				})
			}
		}
		if click, sample, ok := t.errClicks.Check(id, samples); ok {
			t.emitErrorClickLocked(click, sample.Message, sample.At)
		}
	})
}

// correlateErrorLocked pairs an error logged after a click with that click.
func (t *Tracker) correlateErrorLocked(e *event.Error) {
	if !t.cfg.TrackErrorClicks {
		return
	}
	at := time.UnixMilli(e.Timestamp)
	if click, ok := t.errClicks.CorrelateError(at); ok {
		t.emitErrorClickLocked(click, e.Message, at)
	}
}

func (t *Tracker) emitErrorClickLocked(click heuristics.PendingClick, message string, errAt time.Time) {
	t.logLocked(&event.ErrorClick{
		Base:          base(event.TypeErrorClick),
		Element:       click.Element,
		ErrorMessage:  message,
		ErrorCategory: heuristics.CategorizeError(message),
		TimeToErrorMs: errAt.Sub(click.At).Milliseconds(),
	})
}

func (t *Tracker) classifyLinkLocked(target dom.Element) {
	if !t.cfg.TrackOutboundLinks && !t.cfg.TrackDownloads && !t.cfg.TrackShares {
		return
	}
	link, ok := heuristics.ClassifyLink(target, t.env.Location())
	if !ok {
		return
	}
	anchor := target
	if a := dom.Closest(target, "a[href]"); a != nil {
		anchor = a
	}
	info := t.describeLocked(anchor)

	if link.Share && t.cfg.TrackShares {
		t.logLocked(&event.Share{
			Base:     base(event.TypeShare),
			Platform: link.SharePlatform,
			Method:   "link",
			Content:  link.Href,
			Element:  info,
		})
	}
	if link.Download && t.cfg.TrackDownloads {
		t.logLocked(&event.Download{
			Base:      base(event.TypeDownload),
			Href:      link.Href,
			FileName:  link.FileName,
			Extension: link.Extension,
			Element:   info,
		})
	}
	if link.Outbound && t.cfg.TrackOutboundLinks {
		t.logLocked(&event.OutboundLink{
			Base:       base(event.TypeOutboundLink),
			Href:       link.Href,
			TargetHost: link.TargetHost,
			Element:    info,
		})
	}
}

func (t *Tracker) handleMouseMoveLocked(ev *dom.Event) {
	if !t.cfg.TrackMouseMovements {
		return
	}
	now := t.now()
	if !t.lastMouse.IsZero() && now.Sub(t.lastMouse) < t.cfg.MouseThrottle() {
		return
	}
	t.lastMouse = now
	t.logLocked(&event.MouseMove{
		Base:    base(event.TypeMouseMove),
		ClientX: ev.ClientX,
		ClientY: ev.ClientY,
	})
}

var sensitiveInputTypes = map[string]bool{"password": true, "hidden": true, "email": true}

func (t *Tracker) handleKeyDownLocked(ev *dom.Event) {
	if !t.cfg.TrackKeystrokes || ev.Target == nil {
		return
	}
	if ev.Target.TagName() == "input" && sensitiveInputTypes[strings.ToLower(dom.Attr(ev.Target, "type"))] {
		return
	}
	t.logLocked(&event.Keystroke{
		Base:    base(event.TypeKeystroke),
		Key:     ev.Key,
		Code:    ev.Code,
		Element: t.describeLocked(ev.Target),
	})
}
