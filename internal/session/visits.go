package session

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gosight/gosight/tracker/internal/storage"
)

const lastVisitKey = "last_visit"

// Visit is the new-vs-returning answer for this page load.
type Visit struct {
	IsNewVisitor bool
	LastVisitAt  time.Time
}

// Visits keeps the last-visit marker in a KV store.
type Visits struct {
	kv  storage.KV
	log zerolog.Logger
}

func NewVisits(kv storage.KV, log zerolog.Logger) *Visits {
	return &Visits{kv: kv, log: log}
}

// Touch reads the previous marker and records now as the latest visit.
// Storage failures are logged and the visitor counts as new.
func (v *Visits) Touch(ctx context.Context, now time.Time) Visit {
	visit := Visit{IsNewVisitor: true}
	raw, ok, err := v.kv.Get(ctx, lastVisitKey)
	if err != nil {
		v.log.Warn().Err(err).Msg("Failed to read last visit")
	} else if ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			visit.IsNewVisitor = false
			visit.LastVisitAt = time.UnixMilli(ms)
		}
	}
	if err := v.kv.Set(ctx, lastVisitKey, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		v.log.Warn().Err(err).Msg("Failed to write last visit")
	}
	return visit
}
