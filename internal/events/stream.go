package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"roomop/pkg/logging"
)

// DefaultHeartbeatInterval is how long a stream may stay silent before a
// keep-alive comment frame is emitted.
const DefaultHeartbeatInterval = 10 * time.Second

// ConfigureResponse sets the SSE response headers, disabling caching and
// intermediary buffering.
func ConfigureResponse(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// StreamWriter drains a subscription to one HTTP client as Server-Sent
// Events. The connection-scoped lock guarantees two writes to the same
// client never interleave, heartbeats included.
type StreamWriter struct {
	mu       sync.Mutex
	w        http.ResponseWriter
	flusher  http.Flusher
	interval time.Duration
}

// NewStreamWriter wraps w for SSE output. It returns an error when the
// response writer cannot flush, since buffered SSE is useless.
func NewStreamWriter(w http.ResponseWriter, heartbeatInterval time.Duration) (*StreamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	if heartbeatInterval <= 0 {
		heartbeatInterval = DefaultHeartbeatInterval
	}
	return &StreamWriter{w: w, flusher: flusher, interval: heartbeatInterval}, nil
}

// WriteEvent emits one envelope as a data frame.
func (sw *StreamWriter) WriteEvent(env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

// WriteHeartbeat emits a comment frame that keeps intermediaries from
// timing out the connection.
func (sw *StreamWriter) WriteHeartbeat() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if _, err := fmt.Fprint(sw.w, ": ping\n\n"); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

// Serve pumps the subscription to the client until the context is
// cancelled, the subscription closes, or a write fails. The inactivity
// timer resets on every data frame, so heartbeats only fill silence.
func (sw *StreamWriter) Serve(ctx context.Context, sub Subscription) error {
	timer := time.NewTimer(sw.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case env, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := sw.WriteEvent(env); err != nil {
				logging.Debug("Events", "stream write to %s failed: %v", sub.ID, err)
				return err
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(sw.interval)

		case <-timer.C:
			if err := sw.WriteHeartbeat(); err != nil {
				return err
			}
			timer.Reset(sw.interval)
		}
	}
}
