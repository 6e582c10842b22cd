package simulate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gosight/gosight/tracker/internal/dom/htmldom"
	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/fingerprint"
	"github.com/gosight/gosight/tracker/internal/scheduler"
	"github.com/gosight/gosight/tracker/internal/storage"
	"github.com/gosight/gosight/tracker/internal/tracker"
	"github.com/gosight/gosight/tracker/internal/transport"
)

var defaultStart = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// Options control where a run delivers its batches.
type Options struct {
	// Sender receives the batches. Nil keeps them local.
	Sender transport.Sender
	Store  storage.Backend
	Logger zerolog.Logger
}

// Result is what a run captured.
type Result struct {
	Scenario  string
	SessionID string
	UserID    string
	Start     time.Time
	Events    []event.Event
	Batches   int
	Delivered int
	Dropped   int
}

// Run replays sc and destroys the tracker at the end, so everything still
// buffered is flushed to the sender.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Result, error) {
	if sc.Page == "" {
		return nil, ErrNoPage
	}
	win, err := htmldom.New(sc.Page, windowOptions(sc)...)
	if err != nil {
		return nil, err
	}

	start := sc.Start
	if start.IsZero() {
		start = defaultStart
	}
	sched := scheduler.NewFake(start)

	store := opts.Store
	if store == nil {
		store = storage.NewMemory()
	}
	counting := &countingSender{next: opts.Sender}

	tr, err := tracker.New(win, sc.Tracker,
		tracker.WithScheduler(sched),
		tracker.WithSender(counting),
		tracker.WithStore(store),
		tracker.WithLogger(opts.Logger),
		tracker.WithFingerprint(fingerprint.Local{Env: win}),
	)
	if err != nil {
		return nil, err
	}
	if err := tr.Init(ctx); err != nil {
		return nil, err
	}
	if len(sc.Rules) > 0 {
		if err := tr.Track(sc.Rules); err != nil {
			return nil, err
		}
	}

	p := &player{win: win, sched: sched, tracker: tr}
	for i, st := range sc.Steps {
		if err := p.play(ctx, st); err != nil {
			tr.Destroy(ctx)
			return nil, fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		}
	}

	res := &Result{
		Scenario:  sc.Name,
		SessionID: tr.SessionID(),
		UserID:    tr.UserID(),
		Start:     start,
		Events:    tr.Events(),
	}
	tr.Destroy(ctx)
	res.Batches, res.Delivered, res.Dropped = counting.totals()
	return res, nil
}

func windowOptions(sc *Scenario) []htmldom.Option {
	opts := []htmldom.Option{htmldom.WithURL(sc.URL)}
	if sc.Referrer != "" {
		opts = append(opts, htmldom.WithReferrer(sc.Referrer))
	}
	if sc.UserAgent != "" {
		opts = append(opts, htmldom.WithUserAgent(sc.UserAgent))
	}
	if sc.Viewport.Width > 0 && sc.Viewport.Height > 0 {
		opts = append(opts, htmldom.WithViewport(sc.Viewport.Width, sc.Viewport.Height))
	}
	if sc.DocumentHeight > 0 {
		opts = append(opts, htmldom.WithDocumentHeight(sc.DocumentHeight))
	}
	return opts
}

// countingSender tallies what reaches the next sender.
type countingSender struct {
	next transport.Sender

	mu        sync.Mutex
	batches   int
	delivered int
	failed    int
}

func (s *countingSender) Send(ctx context.Context, msg transport.Message) error {
	var err error
	if s.next != nil {
		err = s.next.Send(ctx, msg)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed += msg.Events
		return err
	}
	s.batches++
	s.delivered += msg.Events
	return nil
}

func (s *countingSender) Close() error { return nil }

func (s *countingSender) totals() (batches, delivered, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches, s.delivered, s.failed
}
