package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/wire"
)

type fakeReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func TestTailConsumesAndCommitsEverything(t *testing.T) {
	header := func(key string) []kafka.Header {
		return []kafka.Header{{Key: wire.ProjectKeyHeader, Value: []byte(key)}}
	}
	reader := newFakeReader(
		kafka.Message{Offset: 1, Key: []byte("sess_1"), Value: encode(t, "pk_test"), Headers: header("pk_test")},
		kafka.Message{Offset: 2, Value: []byte("garbage")},
		kafka.Message{Offset: 3, Value: encode(t, "pk_other"), Headers: header("pk_other")},
		kafka.Message{Offset: 4, Value: encode(t, "pk_test")},
	)
	stats := NewCounter()
	tail := NewTailWithReader(reader, []string{"pk_test"}, stats, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tail.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return reader.commits() == 4 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	require.NoError(t, tail.Close())

	snap := stats.Snapshot()
	assert.Equal(t, 2, snap.Batches)
	assert.Equal(t, 4, snap.Events[event.TypeClick]+snap.Events[event.TypePageView])
}
