package tracker

import (
	"context"
	"time"

	"github.com/gosight/gosight/tracker/internal/dom"
	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/session"
)

// A hidden tab ends the session once it has stayed hidden this long.
const hiddenSessionEndDelay = time.Second

func (t *Tracker) emitSessionStartLocked(ctx context.Context) {
	loc := t.env.Location()
	attr := session.Attribute(loc, t.env.Document().Referrer())
	device := session.DeviceClass(t.env.UserAgent())

	visit := session.Visit{IsNewVisitor: true}
	if t.store != nil {
		visit = session.NewVisits(t.store, t.log).Touch(ctx, t.now())
	}

	start := &event.SessionStart{
		Base:          base(event.TypeSessionStart),
		LandingPage:   loc,
		ReferrerHost:  attr.ReferrerHost,
		UTMSource:     attr.UTMSource,
		UTMMedium:     attr.UTMMedium,
		UTMCampaign:   attr.UTMCampaign,
		UTMTerm:       attr.UTMTerm,
		UTMContent:    attr.UTMContent,
		TrafficSource: attr.TrafficSource,
		IsMobile:      device.IsMobile,
		IsTablet:      device.IsTablet,
		IsDesktop:     device.IsDesktop,
		Browser:       device.Browser,
		OS:            device.OS,
		IsNewVisitor:  visit.IsNewVisitor,
	}
	if !visit.LastVisitAt.IsZero() {
		start.LastVisitAt = visit.LastVisitAt.UnixMilli()
	}
	start.Referrer = session.ResolveReferrer(loc, "", t.env.Document().Referrer())
	t.logLocked(start)
}

// endSessionLocked emits session_end at most once per tracker.
func (t *Tracker) endSessionLocked(exit event.ExitType) {
	if t.sessionEnded || !t.cfg.TrackSessions {
		return
	}
	t.sessionEnded = true
	t.hiddenTimer.stop()

	now := t.now()
	sum := session.Summarize(session.Timeline{
		Start:        t.startedAt,
		LastActivity: t.idle.LastActivity(),
		End:          now,
		TotalIdle:    t.idle.TotalIdle(),
	}, t.counters)

	t.logLocked(&event.SessionEnd{
		Base:         base(event.TypeSessionEnd),
		DurationMs:   sum.Duration.Milliseconds(),
		ActiveTimeMs: sum.ActiveTime.Milliseconds(),
		PageViews:    t.counters.PageViews,
		TotalClicks:  t.counters.Clicks,
		TotalScrolls: t.counters.Scrolls,
		ExitType:     exit,
		ExitPage:     t.env.Location(),
		IsBounce:     sum.IsBounce,
		Converted:    t.converted,
	})
}

func (t *Tracker) handleUnloadLocked(*dom.Event) {
	if t.cfg.TrackFormAbandonment {
		for _, a := range t.forms.Abandoned(t.now()) {
			t.logLocked(&event.FormAbandon{
				Base:            base(event.TypeFormAbandon),
				FormID:          a.FormID,
				CompletedFields: a.CompletedFields,
				TotalFields:     a.TotalFields,
				TimeSpentMs:     a.TimeSpent.Milliseconds(),
				LastField:       a.LastField,
			})
		}
		t.forms.Reset()
	}
	t.endSessionLocked(event.ExitUnload)
}

func (t *Tracker) armIdleLocked() {
	t.armLocked(&t.idleTimer, t.cfg.IdleTimeout(), t.onIdleLocked)
}

func (t *Tracker) onIdleLocked() {
	if !t.cfg.TrackIdle {
		return
	}
	if t.idle.Start(t.now()) {
		t.logLocked(&event.IdleStart{
			Base:          base(event.TypeIdleStart),
			IdleTimeoutMs: t.cfg.IdleTimeoutMs,
		})
	}
}

func (t *Tracker) handleActivityLocked(*dom.Event) {
	if d, ended := t.idle.Activity(t.now()); ended && t.cfg.TrackIdle {
		t.logLocked(&event.IdleEnd{
			Base:         base(event.TypeIdleEnd),
			IdleDuration: d.Milliseconds(),
		})
	}
	if t.cfg.TrackIdle {
		t.armIdleLocked()
	}
}
