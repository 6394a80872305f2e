package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"roomop/pkg/logging"
)

// HTTPConfig configures the shared room-service transport.
type HTTPConfig struct {
	// BaseURL is the root of the room service API, e.g. "http://localhost:5050".
	BaseURL string

	// AuthToken, when set, is sent as a bearer token on every request.
	AuthToken string

	// RequestTimeout bounds one HTTP round trip. Defaults to 10s.
	RequestTimeout time.Duration

	// RequestsPerSecond caps the outbound call rate. Defaults to 50.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Defaults to 10.
	Burst int
}

// HTTP is the room-service REST transport. One instance backs the
// RoomClient, ArtifactClient, PolicyClient and CapabilityClient contracts.
//
// Every call goes through a token-bucket rate limiter and a circuit breaker.
// The breaker only counts transient failures: a 4xx rejection is the
// caller's problem, not a sign the collaborator is down.
type HTTP struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewHTTP creates the shared transport for the room service collaborators.
func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 50
	}
	if cfg.Burst == 0 {
		cfg.Burst = 10
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "room-service",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			// Terminal rejections do not indicate collaborator health.
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn("Clients", "circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &HTTP{
		baseURL: cfg.BaseURL,
		token:   cfg.AuthToken,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// do performs one JSON round trip against the room service. A nil out skips
// response decoding. Errors come back classified as Transient or Terminal.
func (h *HTTP) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return Transient(op, fmt.Errorf("rate limiter: %w", err))
	}

	result, err := h.breaker.Execute(func() (interface{}, error) {
		return h.roundTrip(ctx, op, method, path, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Transient(op, err)
		}
		return err
	}

	if out == nil {
		return nil
	}
	data := result.([]byte)
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return Terminal(op, 0, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func (h *HTTP) roundTrip(ctx context.Context, op, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, Terminal(op, 0, fmt.Errorf("encoding request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return nil, Terminal(op, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, Transient(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Transient(op, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, Transient(op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(data)))
	default:
		return nil, Terminal(op, resp.StatusCode, errors.New(truncate(data)))
	}
}

func truncate(data []byte) string {
	const max = 200
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}

// isNotFound reports whether err is a terminal 404. Used by removal
// operations, which treat an already-absent target as success.
func isNotFound(err error) bool {
	var t *TerminalError
	return errors.As(err, &t) && t.Status == http.StatusNotFound
}

// isConflict reports whether err is a terminal 409. Used by add operations,
// which treat an already-present target as success.
func isConflict(err error) bool {
	var t *TerminalError
	return errors.As(err, &t) && t.Status == http.StatusConflict
}
