package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory keeps everything in process memory; it lives as long as the tab.
type Memory struct {
	mu     sync.Mutex
	events []json.RawMessage
	kv     map[string]string
}

func NewMemory() *Memory {
	return &Memory{kv: make(map[string]string)}
}

func (m *Memory) Store(_ context.Context, events []json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.events = append(m.events, append(json.RawMessage(nil), e...))
	}
	return nil
}

func (m *Memory) Retrieve(_ context.Context) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]json.RawMessage, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) Size(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events), nil
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.kv[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
