package tracker

import (
	"context"
	"errors"
	"maps"

	"github.com/gosight/gosight/tracker/internal/dom"
	"github.com/gosight/gosight/tracker/internal/event"
)

var (
	ErrNotInitialized   = errors.New("tracker not initialized")
	ErrShareUnsupported = errors.New("native share is not available")
)

// Rule maps a DOM event on matching elements to a custom event.
type Rule struct {
	Selector   string         `yaml:"selector"`
	Event      string         `yaml:"event"`
	Name       string         `yaml:"name"`
	Properties map[string]any `yaml:"properties"`
}

// Track attaches a delegated listener per rule. Rules without an event type
// listen for clicks.
func (t *Tracker) Track(rules []Rule) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		t.log.Warn().Int("rules", len(rules)).Msg("Track called before Init, ignoring rules")
		return ErrNotInitialized
	}
	doc := t.env.Document()
	for _, r := range rules {
		rule := r
		if rule.Event == "" {
			rule.Event = "click"
		}
		t.on(doc, rule.Event, dom.Options{Capture: true}, func(ev *dom.Event) {
			if ev.Target == nil {
				return
			}
			matched := dom.Closest(ev.Target, rule.Selector)
			if matched == nil {
				return
			}
			info := t.describeLocked(matched)
			t.logLocked(&event.Custom{
				Base:       base(event.TypeCustom),
				Name:       rule.Name,
				Properties: maps.Clone(rule.Properties),
				Element:    &info,
			})
		})
	}
	return nil
}

// TrackCustom records a custom event from application code. A name
// containing "convert" marks the session as converted.
func (t *Tracker) TrackCustom(name string, props map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		t.log.Warn().Str("name", name).Msg("TrackCustom called before Init, ignoring event")
		return ErrNotInitialized
	}
	t.logLocked(&event.Custom{
		Base:       base(event.TypeCustom),
		Name:       name,
		Properties: maps.Clone(props),
	})
	return nil
}

// ShareData is what the page asks the platform to share.
type ShareData struct {
	Title string
	Text  string
	URL   string
}

// NativeShare invokes the platform share sheet.
type NativeShare func(ctx context.Context, data ShareData) error

// Share records a share event and then calls native. Use it instead of
// calling the platform share function directly.
func (t *Tracker) Share(ctx context.Context, data ShareData, native NativeShare) error {
	t.mu.Lock()
	if t.initialized && t.cfg.TrackShares {
		content := data.URL
		if content == "" {
			content = data.Title
		}
		t.logLocked(&event.Share{
			Base:     base(event.TypeShare),
			Platform: "native",
			Method:   "web_share_api",
			Content:  content,
		})
	}
	t.mu.Unlock()

	if native == nil {
		return ErrShareUnsupported
	}
	return native(ctx, data)
}
