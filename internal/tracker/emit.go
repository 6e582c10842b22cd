package tracker

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gosight/gosight/tracker/internal/dom"
	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/heuristics"
	"github.com/gosight/gosight/tracker/internal/scheduler"
	"github.com/gosight/gosight/tracker/internal/session"
)

// slot is a restartable timer. Stopping bumps the generation so a callback
// that already fired and is waiting for the lock becomes a no-op.
type slot struct {
	timer scheduler.Timer
	gen   uint64
}

func (s *slot) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// armLocked (re)starts s. fn runs with the tracker lock held.
func (t *Tracker) armLocked(s *slot, d time.Duration, fn func()) {
	s.stop()
	gen, epoch := s.gen, t.epoch
	s.timer = t.sched.AfterFunc(d, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if s.gen != gen || t.epoch != epoch || !t.initialized {
			return
		}
		s.timer = nil
		fn()
	})
}

// afterLocked runs fn once after d with the tracker lock held, unless the
// tracker is destroyed first.
func (t *Tracker) afterLocked(d time.Duration, fn func()) {
	t.timerSeq++
	id, epoch := t.timerSeq, t.epoch
	t.pending[id] = t.sched.AfterFunc(d, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.pending[id]; !ok || t.epoch != epoch {
			return
		}
		delete(t.pending, id)
		fn()
	})
}

func base(typ event.Type) event.Base { return event.Base{Type: typ} }

// logLocked stamps the envelope and records e in the queue and the batch.
func (t *Tracker) logLocked(e event.Event) {
	b := e.Envelope()
	b.EventID = uuid.NewString()
	b.Timestamp = t.now().UnixMilli()
	b.URL = t.env.Location()
	b.UserAgent = t.env.UserAgent()
	b.SessionID = t.sessionID
	b.UserID = t.userID
	if b.Referrer == "" && b.Type != event.TypeSessionStart && b.Type != event.TypeSessionEnd {
		b.Referrer = session.ResolveReferrer(b.URL, t.previousPage, t.env.Document().Referrer())
	}

	t.queue = append(t.queue, e)
	t.pipeline.Batch(e)

	switch v := e.(type) {
	case *event.Error:
		t.correlateErrorLocked(v)
	case *event.Custom:
		if session.IsConversion(v.Name) {
			t.converted = true
		}
	}
	t.log.Debug().Str("type", string(b.Type)).Str("event_id", b.EventID).Msg("Event captured")
}

// Attributes copied into element descriptors. Form values never are.
var describedAttributes = []string{"href", "type", "name", "role", "aria-label", "title", "alt", "src", "target", "download"}

// describeLocked copies what the detectors and the collector need from el.
func (t *Tracker) describeLocked(el dom.Element) event.ElementInfo {
	if el == nil {
		return event.ElementInfo{}
	}
	info := event.ElementInfo{
		TagName:   el.TagName(),
		ID:        el.ID(),
		ClassName: el.ClassName(),
		Selector:  heuristics.SelectorFor(el),
	}
	switch info.TagName {
	case "input", "textarea", "select":
	default:
		info.TextContent = truncate(strings.Join(strings.Fields(el.TextContent()), " "), t.cfg.MaxTextLength)
	}

	attrs := make(map[string]string)
	for _, name := range describedAttributes {
		if v, ok := el.Attribute(name); ok {
			attrs[name] = v
		}
	}
	for name, v := range el.Attributes() {
		if strings.HasPrefix(name, "data-") {
			attrs[name] = v
		}
	}
	if len(attrs) > 0 {
		info.Attributes = attrs
	}
	return info
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
