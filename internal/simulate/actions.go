package simulate

import (
	"context"
	"fmt"

	"github.com/gosight/gosight/tracker/internal/dom/htmldom"
	"github.com/gosight/gosight/tracker/internal/scheduler"
	"github.com/gosight/gosight/tracker/internal/tracker"
)

type player struct {
	win     *htmldom.Window
	sched   *scheduler.Fake
	tracker *tracker.Tracker
}

type action func(p *player, ctx context.Context, st Step) error

var actions = map[string]action{
	"click":    func(p *player, _ context.Context, st Step) error { return p.win.Click(st.Selector) },
	"type":     func(p *player, _ context.Context, st Step) error { return p.win.Type(st.Selector, st.Value) },
	"key":      func(p *player, _ context.Context, st Step) error { return p.win.KeyDown(st.Selector, st.Value) },
	"submit":   func(p *player, _ context.Context, st Step) error { return p.win.Submit(st.Selector) },
	"copy":     func(p *player, _ context.Context, st Step) error { return p.win.Copy(st.Selector, st.Value) },
	"mutate":   func(p *player, _ context.Context, st Step) error { return p.win.Mutate(st.Selector, st.Value) },
	"scroll":   simple(func(p *player, st Step) { p.win.ScrollTo(st.Top) }),
	"move":     simple(func(p *player, st Step) { p.win.MoveMouse(st.X, st.Y) }),
	"navigate": simple(func(p *player, st Step) { p.win.Navigate(st.URL) }),
	"back":     simple(func(p *player, st Step) { p.win.Back(st.URL) }),
	"resize":   simple(func(p *player, st Step) { p.win.Resize(st.Width, st.Height) }),
	"hide":     simple(func(p *player, _ Step) { p.win.SetVisibility("hidden") }),
	"show":     simple(func(p *player, _ Step) { p.win.SetVisibility("visible") }),
	"unload":   simple(func(p *player, _ Step) { p.win.Unload() }),
	"print":    simple(func(p *player, _ Step) { p.win.Print() }),
	"error":    simple(func(p *player, st Step) { p.win.RaiseError(st.Message, st.URL, 0, 0) }),
	"reject":   simple(func(p *player, st Step) { p.win.RejectPromise(st.Message) }),
	"advance": func(p *player, _ context.Context, st Step) error {
		if st.Duration <= 0 {
			return fmt.Errorf("duration must be positive, got %s", st.Duration)
		}
		p.sched.Advance(st.Duration)
		return nil
	},
	"media": func(p *player, _ context.Context, st Step) error {
		return p.win.Media(st.Selector, st.Value, st.Position, st.Length)
	},
	"custom": func(p *player, _ context.Context, st Step) error {
		return p.tracker.TrackCustom(st.Name, st.Properties)
	},
	"share": func(p *player, ctx context.Context, st Step) error {
		return p.tracker.Share(ctx, tracker.ShareData{Title: st.Name, Text: st.Value, URL: st.URL},
			func(context.Context, tracker.ShareData) error { return nil })
	},
	"flush": func(p *player, ctx context.Context, _ Step) error {
		return p.tracker.Flush(ctx)
	},
}

func simple(fn func(p *player, st Step)) action {
	return func(p *player, _ context.Context, st Step) error {
		fn(p, st)
		return nil
	}
}

// play runs st Repeat times. Repeated steps other than advance are spaced by
// Duration when it is set.
func (p *player) play(ctx context.Context, st Step) error {
	do := actions[st.Action]
	if do == nil {
		return fmt.Errorf("unknown action %q", st.Action)
	}
	n := max(st.Repeat, 1)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := do(p, ctx, st); err != nil {
			return err
		}
		if st.Action != "advance" && st.Duration > 0 && i < n-1 {
			p.sched.Advance(st.Duration)
		}
	}
	return nil
}
