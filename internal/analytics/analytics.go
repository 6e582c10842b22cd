// Package analytics buffers events and delivers them in batches. A batch is
// sent when the buffer reaches the batch size, when no event has arrived for
// the quiet period, or when Flush is called. A failed batch goes back to the
// front of the buffer.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/scheduler"
	"github.com/gosight/gosight/tracker/internal/storage"
	"github.com/gosight/gosight/tracker/internal/transport"
	"github.com/gosight/gosight/tracker/internal/wire"
)

// Limits are the tunables of the pipeline.
type Limits struct {
	BatchSize   int
	MaxBuffer   int
	QuietPeriod time.Duration
	SendTimeout time.Duration
}

// DefaultLimits matches the tracker configuration defaults.
func DefaultLimits() Limits {
	return Limits{
		BatchSize:   50,
		MaxBuffer:   1000,
		QuietPeriod: 5 * time.Second,
		SendTimeout: 10 * time.Second,
	}
}

type Options struct {
	Sender    transport.Sender
	Store     storage.EventStore
	Scheduler scheduler.Scheduler
	Logger    zerolog.Logger
	Limits    Limits
	Meta      wire.Meta
}

// Analytics is safe for concurrent use.
type Analytics struct {
	sender transport.Sender
	store  storage.EventStore
	sched  scheduler.Scheduler
	log    zerolog.Logger

	mu      sync.Mutex
	buffer  []event.Event
	timer   scheduler.Timer
	limits  Limits
	meta    wire.Meta
	dropped int

	inflight sync.WaitGroup
}

func New(opts Options) *Analytics {
	if opts.Scheduler == nil {
		opts.Scheduler = scheduler.NewSystem()
	}
	return &Analytics{
		sender: opts.Sender,
		store:  opts.Store,
		sched:  opts.Scheduler,
		log:    opts.Logger,
		limits: normalize(opts.Limits),
		meta:   opts.Meta,
	}
}

func normalize(l Limits) Limits {
	d := DefaultLimits()
	if l.BatchSize <= 0 {
		l.BatchSize = d.BatchSize
	}
	if l.MaxBuffer <= 0 {
		l.MaxBuffer = d.MaxBuffer
	}
	if l.QuietPeriod <= 0 {
		l.QuietPeriod = d.QuietPeriod
	}
	if l.SendTimeout <= 0 {
		l.SendTimeout = d.SendTimeout
	}
	return l
}

// SetLimits replaces the tunables. The buffer is trimmed if it now exceeds
// the cap.
func (a *Analytics) SetLimits(l Limits) {
	a.mu.Lock()
	a.limits = normalize(l)
	a.trimLocked()
	a.mu.Unlock()
}

// SetMeta sets the identity stamped on every delivered batch.
func (a *Analytics) SetMeta(m wire.Meta) {
	a.mu.Lock()
	a.meta = m
	a.mu.Unlock()
}

// Batch appends events to the buffer. Reaching the batch size starts a
// flush on another goroutine; every call restarts the quiet-period timer.
func (a *Analytics) Batch(events ...event.Event) {
	if len(events) == 0 {
		return
	}
	a.mu.Lock()
	a.buffer = append(a.buffer, events...)
	a.trimLocked()
	a.scheduleLocked()
	full := len(a.buffer) >= a.limits.BatchSize
	timeout := a.limits.SendTimeout
	a.mu.Unlock()

	if full {
		a.inflight.Add(1)
		go func() {
			defer a.inflight.Done()
			a.flushWithTimeout(timeout, "size")
		}()
	}
}

// Flush sends everything buffered as one batch. On failure the batch is put
// back ahead of events buffered since, and the error is returned.
func (a *Analytics) Flush(ctx context.Context) error {
	a.mu.Lock()
	if len(a.buffer) == 0 {
		a.mu.Unlock()
		return nil
	}
	batch := a.buffer
	a.buffer = nil
	a.stopTimerLocked()
	a.mu.Unlock()

	if err := a.Send(ctx, batch); err != nil {
		a.mu.Lock()
		a.buffer = append(batch, a.buffer...)
		a.trimLocked()
		a.mu.Unlock()
		return err
	}
	a.log.Debug().Int("events", len(batch)).Msg("Flushed batch")
	return nil
}

// Send delivers events once, without touching the buffer.
func (a *Analytics) Send(ctx context.Context, events []event.Event) error {
	a.mu.Lock()
	meta := a.meta
	timeout := a.limits.SendTimeout
	a.mu.Unlock()
	meta.SentAt = a.sched.Now()

	body, err := wire.Encode(meta, events)
	if err != nil {
		return err
	}
	if a.sender == nil {
		return ErrNoSender
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return a.sender.Send(ctx, transport.Message{
		ProjectKey: meta.ProjectKey,
		SessionID:  meta.SessionID,
		Body:       body,
		Events:     len(events),
	})
}

// ClearBatch drops the buffer and cancels the quiet-period timer.
func (a *Analytics) ClearBatch() {
	a.mu.Lock()
	a.buffer = nil
	a.stopTimerLocked()
	a.mu.Unlock()
}

// BatchSize is the number of buffered events.
func (a *Analytics) BatchSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buffer)
}

// Dropped is the number of events discarded because the buffer was full.
func (a *Analytics) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Drain waits for in-flight size-triggered flushes. A failed one has put its
// batch back in the buffer by the time Drain returns.
func (a *Analytics) Drain() {
	a.inflight.Wait()
}

// Close cancels the timer and waits for in-flight size-triggered flushes.
func (a *Analytics) Close() {
	a.mu.Lock()
	a.stopTimerLocked()
	a.mu.Unlock()
	a.Drain()
}

func (a *Analytics) flushWithTimeout(timeout time.Duration, trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := a.Flush(ctx); err != nil {
		a.log.Error().Err(err).Str("trigger", trigger).Msg("Failed to flush batch")
	}
}

func (a *Analytics) scheduleLocked() {
	a.stopTimerLocked()
	timeout := a.limits.SendTimeout
	a.timer = a.sched.AfterFunc(a.limits.QuietPeriod, func() {
		a.flushWithTimeout(timeout, "timer")
	})
}

func (a *Analytics) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Analytics) trimLocked() {
	over := len(a.buffer) - a.limits.MaxBuffer
	if over <= 0 {
		return
	}
	a.buffer = append([]event.Event(nil), a.buffer[over:]...)
	a.dropped += over
	a.log.Warn().Int("dropped", over).Int("max_buffer_size", a.limits.MaxBuffer).Msg("Event buffer full, dropping oldest events")
}
