// Package tracker is the capture engine. It listens to a dom.Environment,
// turns raw DOM events into typed events, runs the heuristic detectors and
// hands everything to the batching pipeline.
package tracker

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gosight/gosight/tracker/internal/analytics"
	"github.com/gosight/gosight/tracker/internal/config"
	"github.com/gosight/gosight/tracker/internal/dom"
	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/fingerprint"
	"github.com/gosight/gosight/tracker/internal/heuristics"
	"github.com/gosight/gosight/tracker/internal/logging"
	"github.com/gosight/gosight/tracker/internal/scheduler"
	"github.com/gosight/gosight/tracker/internal/session"
	"github.com/gosight/gosight/tracker/internal/storage"
	"github.com/gosight/gosight/tracker/internal/transport"
	"github.com/gosight/gosight/tracker/internal/transport/httpsender"
	"github.com/gosight/gosight/tracker/internal/transport/kafkasender"
	"github.com/gosight/gosight/tracker/internal/wire"
)

// UserIDPending is reported by UserID until the fingerprint resolves.
const UserIDPending = "initializing"

var ErrTransportChange = errors.New("transport cannot change after construction")

// Option customizes a Tracker.
type Option func(*Tracker)

func WithScheduler(s scheduler.Scheduler) Option { return func(t *Tracker) { t.sched = s } }

func WithSender(s transport.Sender) Option { return func(t *Tracker) { t.sender = s } }

func WithStore(b storage.Backend) Option { return func(t *Tracker) { t.store = b } }

func WithFingerprint(l fingerprint.Loader) Option { return func(t *Tracker) { t.loader = l } }

func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) {
		t.log = l
		t.hasLogger = true
	}
}

// Tracker is safe for concurrent use: every entry point takes one mutex.
type Tracker struct {
	env       dom.Environment
	sched     scheduler.Scheduler
	sender    transport.Sender
	store     storage.Backend
	loader    fingerprint.Loader
	log       zerolog.Logger
	hasLogger bool
	pipeline  *analytics.Analytics

	ownsSender bool
	ownsStore  bool

	mu          sync.Mutex
	cfg         config.Config
	initialized bool
	epoch       uint64

	sessionID string
	userID    string
	startedAt time.Time

	queue        []event.Event
	counters     session.Counters
	converted    bool
	sessionEnded bool
	currentURL   string
	previousPage string
	lastMouse    time.Time
	lastSearch   *heuristics.LastSearch

	rage      *heuristics.RageClicks
	dead      *heuristics.DeadClicks
	errClicks *heuristics.ErrorClicks
	depth     *heuristics.ScrollDepth
	idle      *heuristics.Idle
	forms     *heuristics.FormAbandonment
	media     *heuristics.MediaProgress

	scrollTimer slot
	resizeTimer slot
	idleTimer   slot
	hiddenTimer slot
	autoFlush   scheduler.Timer
	pending     map[uint64]scheduler.Timer
	timerSeq    uint64

	removers []func()
}

// New validates cfg and builds a tracker. cfg is expected to start from
// config.Default() or config.Load; zero tunables are filled with defaults.
// Without WithSender and WithStore the transport and storage named in cfg
// are created and owned by the tracker.
func New(env dom.Environment, cfg config.Config, opts ...Option) (*Tracker, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Tracker{
		env:     env,
		cfg:     cfg,
		userID:  UserIDPending,
		pending: make(map[uint64]scheduler.Timer),
	}
	for _, opt := range opts {
		opt(t)
	}
	if !t.hasLogger {
		t.log = logging.New(cfg.Log, os.Stderr)
	}
	if t.sched == nil {
		t.sched = scheduler.NewSystem()
	}
	if t.loader == nil {
		t.loader = fingerprint.Local{Env: env}
	}
	if t.sender == nil {
		t.sender = newSender(cfg)
		t.ownsSender = true
	}
	if t.store == nil {
		store, err := storage.Open(cfg.Storage)
		if err != nil {
			return nil, err
		}
		t.store = store
		t.ownsStore = true
	}

	now := t.sched.Now()
	t.sessionID = session.NewID(now)
	t.startedAt = now
	t.resetDetectors(now)

	t.pipeline = analytics.New(analytics.Options{
		Sender:    t.sender,
		Store:     t.store,
		Scheduler: t.sched,
		Logger:    t.log,
		Limits:    limitsFrom(cfg),
		Meta:      t.metaLocked(),
	})
	return t, nil
}

func newSender(cfg config.Config) transport.Sender {
	if cfg.Transport == config.TransportKafka {
		return kafkasender.New(cfg.Kafka)
	}
	return httpsender.New(cfg.Endpoint, cfg.APIKey, &http.Client{})
}

func limitsFrom(cfg config.Config) analytics.Limits {
	return analytics.Limits{
		BatchSize:   cfg.BatchSize,
		MaxBuffer:   cfg.MaxBufferSize,
		QuietPeriod: cfg.BatchFlushInterval(),
		SendTimeout: cfg.SendTimeout(),
	}
}

func (t *Tracker) metaLocked() wire.Meta {
	return wire.Meta{ProjectKey: t.cfg.APIKey, SessionID: t.sessionID, UserID: t.userID}
}

func (t *Tracker) resetDetectors(now time.Time) {
	t.rage = heuristics.NewRageClicks()
	t.dead = heuristics.NewDeadClicks()
	t.errClicks = heuristics.NewErrorClicks()
	t.depth = heuristics.NewScrollDepth(now)
	t.idle = heuristics.NewIdle(now)
	t.forms = heuristics.NewFormAbandonment()
	t.media = heuristics.NewMediaProgress()
	t.lastSearch = nil
}

// Init resolves the visitor id, restores undelivered events, attaches the
// listeners and emits session_start and the first page_view. Calling it
// again, or without a browser environment, only logs a warning.
func (t *Tracker) Init(ctx context.Context) error {
	t.mu.Lock()
	if t.initialized {
		t.mu.Unlock()
		t.log.Warn().Msg("Tracker already initialized")
		return nil
	}
	if t.env == nil || !t.env.Available() {
		t.mu.Unlock()
		t.log.Warn().Msg("No browser environment, tracker disabled")
		return nil
	}
	t.initialized = true
	t.epoch++
	t.mu.Unlock()

	userID, err := fingerprint.Resolve(ctx, t.loader)
	if err != nil {
		t.log.Warn().Err(err).Str("user_id", userID).Msg("Fingerprint failed, using anonymous id")
	}

	if n, err := t.pipeline.Restore(ctx); err != nil {
		if !errors.Is(err, analytics.ErrNoStore) {
			t.log.Warn().Err(err).Msg("Failed to restore persisted events")
		}
	} else if n > 0 {
		t.log.Info().Int("events", n).Msg("Restored undelivered events")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return nil
	}

	t.userID = userID
	t.pipeline.SetMeta(t.metaLocked())

	now := t.now()
	t.startedAt = now
	t.currentURL = t.env.Location()
	t.resetDetectors(now)

	t.attachLocked()

	if t.cfg.TrackSessions {
		t.emitSessionStartLocked(ctx)
	}
	if t.cfg.TrackPageViews {
		t.emitPageViewLocked()
	}
	if t.cfg.TrackIdle {
		t.armIdleLocked()
	}

	t.autoFlush = t.sched.Every(t.cfg.AutoFlushInterval(), t.autoFlushTick)

	t.log.Info().
		Str("session_id", t.sessionID).
		Str("user_id", t.userID).
		Msg("Tracker initialized")
	return nil
}

func (t *Tracker) autoFlushTick() {
	t.mu.Lock()
	timeout := t.cfg.SendTimeout()
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := t.pipeline.Flush(ctx); err != nil {
		t.log.Error().Err(err).Msg("Auto-flush failed, events requeued")
	}
}

// Destroy flushes what is buffered, detaches every listener and timer and
// clears the queue and the batch. Events that could not be delivered are
// written to the store. Delivery errors are logged, not returned.
func (t *Tracker) Destroy(ctx context.Context) {
	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return
	}
	t.initialized = false
	t.epoch++
	t.stopTimersLocked()
	removers := t.removers
	t.removers = nil
	t.mu.Unlock()

	for _, remove := range removers {
		remove()
	}

	t.pipeline.Drain()
	if err := t.pipeline.Flush(ctx); err != nil {
		t.log.Error().Err(err).Msg("Final flush failed")
		if n, err := t.pipeline.Persist(ctx); err != nil {
			if !errors.Is(err, analytics.ErrNoStore) {
				t.log.Warn().Err(err).Msg("Failed to persist undelivered events")
			}
		} else if n > 0 {
			t.log.Info().Int("events", n).Msg("Persisted undelivered events")
		}
	}

	t.pipeline.ClearBatch()
	t.pipeline.Close()

	t.mu.Lock()
	t.queue = nil
	t.mu.Unlock()
	t.log.Info().Str("session_id", t.sessionID).Msg("Tracker destroyed")
}

// Close releases the sender and store the tracker created itself.
func (t *Tracker) Close() error {
	var errs []error
	if t.ownsSender {
		errs = append(errs, t.sender.Close())
	}
	if t.ownsStore {
		errs = append(errs, t.store.Close())
	}
	return errors.Join(errs...)
}

func (t *Tracker) stopTimersLocked() {
	t.scrollTimer.stop()
	t.resizeTimer.stop()
	t.idleTimer.stop()
	t.hiddenTimer.stop()
	if t.autoFlush != nil {
		t.autoFlush.Stop()
		t.autoFlush = nil
	}
	for id, timer := range t.pending {
		timer.Stop()
		delete(t.pending, id)
	}
}

// Events returns a copy of everything captured since the last ClearEvents.
func (t *Tracker) Events() []event.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]event.Event(nil), t.queue...)
}

// ClearEvents empties the introspection queue. The delivery buffer is not
// affected.
func (t *Tracker) ClearEvents() {
	t.mu.Lock()
	t.queue = nil
	t.mu.Unlock()
}

// UpdateConfig applies fn to a copy of the configuration and swaps it in if
// it validates. Capture toggles take effect on the next DOM event.
func (t *Tracker) UpdateConfig(fn func(*config.Config)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.cfg.Clone()
	fn(&next)
	next = next.WithDefaults()
	if err := next.Validate(); err != nil {
		return err
	}
	if next.Transport != t.cfg.Transport {
		return ErrTransportChange
	}

	prev := t.cfg
	t.cfg = next
	t.pipeline.SetLimits(limitsFrom(next))
	t.pipeline.SetMeta(t.metaLocked())
	if c, ok := t.sender.(transport.Configurable); ok && (prev.Endpoint != next.Endpoint || prev.APIKey != next.APIKey) {
		c.Configure(next.Endpoint, next.APIKey)
	}
	if !next.TrackIdle {
		t.idleTimer.stop()
	} else if !prev.TrackIdle && t.initialized {
		t.armIdleLocked()
	}
	return nil
}

// Config returns a copy of the live configuration.
func (t *Tracker) Config() config.Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.Clone()
}

func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

func (t *Tracker) UserID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.userID
}

// Flush delivers the buffered batch now.
func (t *Tracker) Flush(ctx context.Context) error {
	return t.pipeline.Flush(ctx)
}

// BatchSize is the number of events waiting for delivery.
func (t *Tracker) BatchSize() int {
	return t.pipeline.BatchSize()
}

func (t *Tracker) now() time.Time { return t.sched.Now() }
