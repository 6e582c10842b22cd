// Package wire defines the request body shipped to the collector. Each event
// is flattened: envelope fields stay at the top level and the variant's own
// fields move under "payload".
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosight/gosight/tracker/internal/event"
)

const (
	SDKVersion       = "gosight-go/0.1.0"
	ProjectKeyHeader = "X-Project-Key"
)

// Record is one event on the wire.
type Record struct {
	event.Base
	Payload map[string]any `json:"payload,omitempty"`
}

// Batch is the body of one delivery.
type Batch struct {
	ProjectKey string   `json:"project_key"`
	SessionID  string   `json:"session_id"`
	UserID     string   `json:"user_id"`
	SentAt     int64    `json:"sent_at"`
	SDKVersion string   `json:"sdk_version"`
	Events     []Record `json:"events"`
}

// Meta is the per-delivery information around the events.
type Meta struct {
	ProjectKey string
	SessionID  string
	UserID     string
	SentAt     time.Time
}

// Flatten converts an event to its wire record.
func Flatten(e event.Event) (Record, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s event: %w", e.Envelope().Type, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return Record{}, err
	}
	for _, k := range event.EnvelopeKeys {
		delete(fields, k)
	}
	rec := Record{Base: *e.Envelope()}
	if len(fields) > 0 {
		rec.Payload = fields
	}
	return rec, nil
}

// Unflatten rebuilds the typed event from a wire record.
func Unflatten(rec Record) (event.Event, error) {
	fields := make(map[string]any, len(rec.Payload)+len(event.EnvelopeKeys))
	for k, v := range rec.Payload {
		fields[k] = v
	}
	base, err := json.Marshal(rec.Base)
	if err != nil {
		return nil, err
	}
	var envelope map[string]any
	if err := json.Unmarshal(base, &envelope); err != nil {
		return nil, err
	}
	for k, v := range envelope {
		fields[k] = v
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return event.Decode(data)
}

// Encode builds the request body for events.
func Encode(meta Meta, events []event.Event) ([]byte, error) {
	b := Batch{
		ProjectKey: meta.ProjectKey,
		SessionID:  meta.SessionID,
		UserID:     meta.UserID,
		SentAt:     meta.SentAt.UnixMilli(),
		SDKVersion: SDKVersion,
		Events:     make([]Record, 0, len(events)),
	}
	for _, e := range events {
		rec, err := Flatten(e)
		if err != nil {
			return nil, err
		}
		b.Events = append(b.Events, rec)
	}
	return json.Marshal(b)
}

// Decode parses a request body.
func Decode(data []byte) (*Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return &b, nil
}

// TypedEvents rebuilds the typed events of a batch. The first record that
// fails to decode aborts with its index.
func (b *Batch) TypedEvents() ([]event.Event, error) {
	out := make([]event.Event, 0, len(b.Events))
	for i, rec := range b.Events {
		e, err := Unflatten(rec)
		if err != nil {
			return out, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
