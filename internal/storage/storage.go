// Package storage persists undelivered events and small key/value markers
// across page loads. Backends: an in-memory map, SQLite for a durable local
// file, and Redis for a store shared between processes.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gosight/gosight/tracker/internal/config"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// EventStore holds encoded events that could not be delivered.
type EventStore interface {
	Store(ctx context.Context, events []json.RawMessage) error
	Retrieve(ctx context.Context) ([]json.RawMessage, error)
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}

// KV holds string markers such as the last-visit timestamp.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Backend is a store that offers both capabilities.
type Backend interface {
	EventStore
	KV
	Close() error
}

// Open builds the backend named by cfg.Driver.
func Open(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(cfg.Path)
	case DriverRedis:
		return NewRedis(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
