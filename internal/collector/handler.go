// Package collector is a development stand-in for the ingestion service. It
// accepts tracker batches over HTTP or from the Kafka topic, checks the
// project key, rebuilds the typed events and hands them to a Sink.
package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/wire"
)

const defaultMaxBodySize = 1 << 20

type HTTPHandler struct {
	keys    keySet
	sink    Sink
	maxBody int64
	log     zerolog.Logger
}

// NewHTTPHandler accepts batches for keys. An empty key list accepts any
// non-empty key.
func NewHTTPHandler(keys []string, sink Sink, maxBody int64, log zerolog.Logger) *HTTPHandler {
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}
	return &HTTPHandler{
		keys:    newKeySet(keys),
		sink:    sink,
		maxBody: maxBody,
		log:     log,
	}
}

type EventResponse struct {
	Success       bool     `json:"success"`
	AcceptedCount int      `json:"accepted_count"`
	RejectedCount int      `json:"rejected_count"`
	Errors        []string `json:"errors,omitempty"`
}

func (h *HTTPHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	batch, err := wire.Decode(body)
	if err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	key := r.Header.Get(wire.ProjectKeyHeader)
	if key == "" {
		key = batch.ProjectKey
	}
	if !h.keys.allows(key) || (batch.ProjectKey != "" && batch.ProjectKey != key) {
		writeJSON(w, http.StatusUnauthorized, EventResponse{
			Success: false,
			Errors:  []string{"Invalid API key"},
		})
		return
	}

	events, errs := decodeEvents(batch)
	if len(events) > 0 {
		if err := h.sink.Accept(r.Context(), batch, events); err != nil {
			h.log.Error().Err(err).Str("session_id", batch.SessionID).Msg("Failed to store batch")
			writeJSON(w, http.StatusInternalServerError, EventResponse{
				Success: false,
				Errors:  []string{err.Error()},
			})
			return
		}
	}

	h.log.Info().
		Str("session_id", batch.SessionID).
		Str("user_id", batch.UserID).
		Str("sdk_version", batch.SDKVersion).
		Int("accepted", len(events)).
		Int("rejected", len(errs)).
		Msg("Batch received")

	writeJSON(w, http.StatusOK, EventResponse{
		Success:       len(errs) == 0,
		AcceptedCount: len(events),
		RejectedCount: len(errs),
		Errors:        errs,
	})
}

// decodeEvents rebuilds every record it can and describes the ones it can't.
func decodeEvents(batch *wire.Batch) ([]event.Event, []string) {
	var (
		events []event.Event
		errs   []string
	)
	for i, rec := range batch.Events {
		e, err := wire.Unflatten(rec)
		if err != nil {
			errs = append(errs, fmt.Sprintf("event %d: %v", i, err))
			continue
		}
		events = append(events, e)
	}
	return events, errs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+wire.ProjectKeyHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type keySet map[string]bool

func newKeySet(keys []string) keySet {
	s := make(keySet, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}

func (s keySet) allows(key string) bool {
	if key == "" {
		return false
	}
	return len(s) == 0 || s[key]
}
