package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosight/gosight/tracker/internal/event"
)

var (
	ErrNoSender = errors.New("analytics: no sender configured")
	ErrNoStore  = errors.New("analytics: no store configured")
)

// Persist moves the buffer into the store. If the store fails the events
// stay buffered.
func (a *Analytics) Persist(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, ErrNoStore
	}
	a.mu.Lock()
	batch := a.buffer
	a.buffer = nil
	a.stopTimerLocked()
	a.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}
	raw, err := event.EncodeAll(batch)
	if err == nil {
		err = a.store.Store(ctx, raw)
	}
	if err != nil {
		a.mu.Lock()
		a.buffer = append(batch, a.buffer...)
		a.trimLocked()
		a.mu.Unlock()
		return 0, fmt.Errorf("persist events: %w", err)
	}
	return len(batch), nil
}

// Restore loads persisted events ahead of anything buffered and clears the
// store. Records that no longer decode are dropped with a warning.
func (a *Analytics) Restore(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, ErrNoStore
	}
	raw, err := a.store.Retrieve(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore events: %w", err)
	}
	if len(raw) == 0 {
		return 0, nil
	}

	restored := make([]event.Event, 0, len(raw))
	for _, r := range raw {
		e, err := event.Decode(r)
		if err != nil {
			a.log.Warn().Err(err).Msg("Dropping undecodable persisted event")
			continue
		}
		restored = append(restored, e)
	}
	if err := a.store.Clear(ctx); err != nil {
		return 0, fmt.Errorf("clear restored events: %w", err)
	}

	a.mu.Lock()
	a.buffer = append(restored, a.buffer...)
	a.trimLocked()
	if len(a.buffer) > 0 {
		a.scheduleLocked()
	}
	a.mu.Unlock()
	return len(restored), nil
}
