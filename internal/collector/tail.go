package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/gosight/gosight/tracker/internal/config"
	"github.com/gosight/gosight/tracker/internal/wire"
)

// MessageReader is the subset of *kafka.Reader the tail uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Tail consumes batches published by the kafka transport.
type Tail struct {
	reader MessageReader
	keys   keySet
	sink   Sink
	log    zerolog.Logger
}

func NewTail(cfg config.CollectorKafka, keys []string, sink Sink, log zerolog.Logger) *Tail {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
	return NewTailWithReader(reader, keys, sink, log.With().Str("topic", cfg.Topic).Logger())
}

func NewTailWithReader(r MessageReader, keys []string, sink Sink, log zerolog.Logger) *Tail {
	return &Tail{reader: r, keys: newKeySet(keys), sink: sink, log: log}
}

// Run consumes until ctx is cancelled. Every fetched message is committed,
// including ones that fail to parse, so a bad message cannot wedge the tail.
func (t *Tail) Run(ctx context.Context) {
	t.log.Info().Msg("Starting Kafka tail")

	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("Kafka tail stopped")
			return
		default:
			msg, err := t.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				t.log.Error().Err(err).Msg("Failed to fetch message")
				continue
			}

			t.handle(ctx, msg)

			if err := t.reader.CommitMessages(ctx, msg); err != nil {
				t.log.Error().Err(err).Msg("Failed to commit message")
			}
		}
	}
}

func (t *Tail) handle(ctx context.Context, msg kafka.Message) {
	batch, err := wire.Decode(msg.Value)
	if err != nil {
		t.log.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to parse message")
		return
	}

	key := batch.ProjectKey
	for _, h := range msg.Headers {
		if h.Key == wire.ProjectKeyHeader {
			key = string(h.Value)
		}
	}
	if !t.keys.allows(key) {
		t.log.Warn().Str("session_id", batch.SessionID).Msg("Dropping batch with unknown project key")
		return
	}

	events, errs := decodeEvents(batch)
	for _, e := range errs {
		t.log.Warn().Str("session_id", batch.SessionID).Str("error", e).Msg("Rejected event")
	}
	if len(events) == 0 {
		return
	}
	if err := t.sink.Accept(ctx, batch, events); err != nil {
		t.log.Error().Err(err).Str("session_id", batch.SessionID).Msg("Failed to process batch")
	}
}

func (t *Tail) Close() error {
	t.log.Info().Msg("Closing Kafka tail")
	return t.reader.Close()
}
