// Package kafkasender publishes batches to a Kafka topic, one message per
// flush keyed by session id.
package kafkasender

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/gosight/gosight/tracker/internal/config"
	"github.com/gosight/gosight/tracker/internal/transport"
	"github.com/gosight/gosight/tracker/internal/wire"
)

// MessageWriter is the subset of *kafka.Writer the sender uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Sender struct {
	writer MessageWriter
}

// New builds a synchronous writer so a failed write surfaces to Flush.
func New(cfg config.KafkaConfig) *Sender {
	return NewWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

func NewWithWriter(w MessageWriter) *Sender {
	return &Sender{writer: w}
}

func (s *Sender) Send(ctx context.Context, msg transport.Message) error {
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.SessionID),
		Value: msg.Body,
		Headers: []kafka.Header{
			{Key: wire.ProjectKeyHeader, Value: []byte(msg.ProjectKey)},
		},
	})
}

func (s *Sender) Close() error {
	return s.writer.Close()
}
