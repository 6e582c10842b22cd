package collector

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/storage"
	"github.com/gosight/gosight/tracker/internal/wire"
)

// Sink receives the decoded events of one accepted batch.
type Sink interface {
	Accept(ctx context.Context, batch *wire.Batch, events []event.Event) error
}

// LogSink writes one log line per event.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) Accept(_ context.Context, batch *wire.Batch, events []event.Event) error {
	for _, e := range events {
		b := e.Envelope()
		s.Log.Info().
			Str("session_id", batch.SessionID).
			Str("event_id", b.EventID).
			Str("type", string(b.Type)).
			Str("url", b.URL).
			Int64("timestamp", b.Timestamp).
			Msg("Event")
	}
	return nil
}

// StoreSink appends accepted events, encoded, to an event store.
type StoreSink struct {
	Store storage.EventStore
}

func (s StoreSink) Accept(ctx context.Context, _ *wire.Batch, events []event.Event) error {
	raw, err := event.EncodeAll(events)
	if err != nil {
		return err
	}
	return s.Store.Store(ctx, raw)
}

// Sinks fans a batch out to every sink and joins their errors.
type Sinks []Sink

func (s Sinks) Accept(ctx context.Context, batch *wire.Batch, events []event.Event) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Accept(ctx, batch, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Counter tallies accepted events by type and sessions seen.
type Counter struct {
	mu       sync.Mutex
	byType   map[event.Type]int
	sessions map[string]bool
	batches  int
}

func NewCounter() *Counter {
	return &Counter{
		byType:   make(map[event.Type]int),
		sessions: make(map[string]bool),
	}
}

func (c *Counter) Accept(_ context.Context, batch *wire.Batch, events []event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches++
	c.sessions[batch.SessionID] = true
	for _, e := range events {
		c.byType[e.Envelope().Type]++
	}
	return nil
}

// Stats is the Counter snapshot served at /v1/stats.
type Stats struct {
	Batches  int                `json:"batches"`
	Sessions int                `json:"sessions"`
	Events   map[event.Type]int `json:"events"`
}

func (c *Counter) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make(map[event.Type]int, len(c.byType))
	for t, n := range c.byType {
		events[t] = n
	}
	return Stats{Batches: c.batches, Sessions: len(c.sessions), Events: events}
}

func (c *Counter) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.Snapshot())
}
