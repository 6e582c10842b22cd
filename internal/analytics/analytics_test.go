package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/scheduler"
	"github.com/gosight/gosight/tracker/internal/storage"
	"github.com/gosight/gosight/tracker/internal/transport"
	"github.com/gosight/gosight/tracker/internal/wire"
)

type fakeSender struct {
	mu      sync.Mutex
	fail    error
	batches [][]string
}

func (s *fakeSender) Send(_ context.Context, msg transport.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	b, err := wire.Decode(msg.Body)
	if err != nil {
		return err
	}
	var ids []string
	for _, rec := range b.Events {
		ids = append(ids, rec.EventID)
	}
	s.batches = append(s.batches, ids)
	return nil
}

func (s *fakeSender) Close() error { return nil }

func (s *fakeSender) setFail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *fakeSender) sent() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.batches...)
}

func click(id string) event.Event {
	return &event.Click{Base: event.Base{EventID: id, Type: event.TypeClick}}
}

func newPipeline(t *testing.T, limits Limits) (*Analytics, *fakeSender, *scheduler.Fake) {
	t.Helper()
	sender := &fakeSender{}
	sched := scheduler.NewFake(time.UnixMilli(1700000000000))
	a := New(Options{
		Sender:    sender,
		Store:     storage.NewMemory(),
		Scheduler: sched,
		Logger:    zerolog.Nop(),
		Limits:    limits,
		Meta:      wire.Meta{ProjectKey: "pk", SessionID: "sess_1"},
	})
	t.Cleanup(a.Close)
	return a, sender, sched
}

func TestBatchFlushesOnSize(t *testing.T) {
	a, sender, _ := newPipeline(t, Limits{BatchSize: 3})

	a.Batch(click("1"), click("2"))
	assert.Empty(t, sender.sent())

	a.Batch(click("3"))
	assert.Eventually(t, func() bool { return len(sender.sent()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"1", "2", "3"}, sender.sent()[0])
	assert.Equal(t, 0, a.BatchSize())
}

func TestQuietPeriodFlushIsDebounced(t *testing.T) {
	a, sender, sched := newPipeline(t, Limits{BatchSize: 100, QuietPeriod: 5 * time.Second})

	a.Batch(click("1"))
	sched.Advance(4999 * time.Millisecond)
	a.Batch(click("2"))
	sched.Advance(4999 * time.Millisecond)
	assert.Empty(t, sender.sent())

	sched.Advance(time.Millisecond)
	require.Len(t, sender.sent(), 1)
	assert.Equal(t, []string{"1", "2"}, sender.sent()[0])
	assert.Equal(t, 0, sched.Pending())
}

func TestFlushRequeuesOnFailure(t *testing.T) {
	a, sender, _ := newPipeline(t, Limits{BatchSize: 100})
	boom := errors.New("503")
	sender.setFail(boom)

	a.Batch(click("1"), click("2"))
	err := a.Flush(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, a.BatchSize())

	a.Batch(click("3"))
	sender.setFail(nil)
	require.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, [][]string{{"1", "2", "3"}}, sender.sent())
}

func TestFailedBatchGoesAheadOfNewerEvents(t *testing.T) {
	next := &fakeSender{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	sender := senderFunc(func(ctx context.Context, msg transport.Message) error {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return errors.New("503")
		}
		return next.Send(ctx, msg)
	})
	a := New(Options{
		Sender:    sender,
		Scheduler: scheduler.NewFake(time.UnixMilli(1700000000000)),
		Logger:    zerolog.Nop(),
		Limits:    Limits{BatchSize: 100},
	})
	t.Cleanup(a.Close)

	a.Batch(click("1"), click("2"))
	errc := make(chan error, 1)
	go func() { errc <- a.Flush(context.Background()) }()

	<-entered
	a.Batch(click("3"), click("4"))
	close(release)
	require.Error(t, <-errc)
	assert.Equal(t, 4, a.BatchSize())

	require.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, [][]string{{"1", "2", "3", "4"}}, next.sent())
}

func TestDefaultBatchSizeFlushesOnce(t *testing.T) {
	a, sender, sched := newPipeline(t, Limits{})

	for i := 1; i < 50; i++ {
		a.Batch(click(strconv.Itoa(i)))
	}
	assert.Empty(t, sender.sent())

	a.Batch(click("50"))
	require.Eventually(t, func() bool { return len(sender.sent()) == 1 }, time.Second, 5*time.Millisecond)
	a.Drain()
	sched.Advance(time.Minute)

	require.Len(t, sender.sent(), 1)
	assert.Len(t, sender.sent()[0], 50)
	assert.Equal(t, "1", sender.sent()[0][0])
	assert.Equal(t, 0, a.BatchSize())
}

func TestDrainWaitsForFailedSizeFlush(t *testing.T) {
	a, sender, _ := newPipeline(t, Limits{BatchSize: 3})
	sender.setFail(errors.New("503"))

	a.Batch(click("1"), click("2"), click("3"))
	a.Drain()
	assert.Equal(t, 3, a.BatchSize())
	assert.Empty(t, sender.sent())
}

func TestFlushEmptyIsNoop(t *testing.T) {
	a, sender, _ := newPipeline(t, Limits{})
	require.NoError(t, a.Flush(context.Background()))
	assert.Empty(t, sender.sent())
}

func TestClearBatch(t *testing.T) {
	a, sender, sched := newPipeline(t, Limits{BatchSize: 100})
	a.Batch(click("1"))
	a.ClearBatch()
	assert.Equal(t, 0, a.BatchSize())
	assert.Equal(t, 0, sched.Pending())
	sched.Advance(time.Minute)
	assert.Empty(t, sender.sent())
}

func TestBufferDropsOldestWhenFull(t *testing.T) {
	a, sender, _ := newPipeline(t, Limits{BatchSize: 100, MaxBuffer: 3})
	a.Batch(click("1"), click("2"), click("3"), click("4"), click("5"))
	assert.Equal(t, 3, a.BatchSize())
	assert.Equal(t, 2, a.Dropped())

	require.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, [][]string{{"3", "4", "5"}}, sender.sent())
}

func TestSendStampsMeta(t *testing.T) {
	var got wire.Batch
	sender := senderFunc(func(_ context.Context, msg transport.Message) error {
		return json.Unmarshal(msg.Body, &got)
	})
	sched := scheduler.NewFake(time.UnixMilli(1700000000000))
	a := New(Options{Sender: sender, Scheduler: sched, Logger: zerolog.Nop()})
	a.SetMeta(wire.Meta{ProjectKey: "pk", SessionID: "s", UserID: "u"})

	require.NoError(t, a.Send(context.Background(), []event.Event{click("1")}))
	assert.Equal(t, "pk", got.ProjectKey)
	assert.Equal(t, "u", got.UserID)
	assert.Equal(t, int64(1700000000000), got.SentAt)
	assert.Len(t, got.Events, 1)
}

func TestSendWithoutSender(t *testing.T) {
	a := New(Options{Scheduler: scheduler.NewFake(time.Now()), Logger: zerolog.Nop()})
	assert.ErrorIs(t, a.Send(context.Background(), []event.Event{click("1")}), ErrNoSender)
}

func TestPersistAndRestore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	sender := &fakeSender{}
	sched := scheduler.NewFake(time.UnixMilli(1700000000000))

	first := New(Options{Sender: sender, Store: store, Scheduler: sched, Logger: zerolog.Nop()})
	first.Batch(click("1"), click("2"))
	n, err := first.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, first.BatchSize())

	second := New(Options{Sender: sender, Store: store, Scheduler: sched, Logger: zerolog.Nop()})
	second.Batch(click("3"))
	n, err = second.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, second.Flush(ctx))
	assert.Equal(t, [][]string{{"1", "2", "3"}}, sender.sent())
}

func TestRestoreSkipsUndecodable(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Store(ctx, []json.RawMessage{
		json.RawMessage(`{"type":"teleport"}`),
		json.RawMessage(`{"type":"click","event_id":"ok"}`),
	}))
	a := New(Options{Store: store, Scheduler: scheduler.NewFake(time.Now()), Logger: zerolog.Nop()})
	n, err := a.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPersistWithoutStore(t *testing.T) {
	a := New(Options{Scheduler: scheduler.NewFake(time.Now()), Logger: zerolog.Nop()})
	_, err := a.Persist(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)
}

type senderFunc func(ctx context.Context, msg transport.Message) error

func (f senderFunc) Send(ctx context.Context, msg transport.Message) error { return f(ctx, msg) }
func (f senderFunc) Close() error                                         { return nil }
