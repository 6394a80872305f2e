package events

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	ConfigureResponse(rec)

	assert.Equal(t, "text/event-stream; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
}

func TestWriteEventFrameFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	sw, err := NewStreamWriter(rec, time.Second)
	require.NoError(t, err)

	env := NewEnvelope(TypeReconcileCompleted, map[string]interface{}{"roomId": "room-1"})
	require.NoError(t, sw.WriteEvent(env))

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "data: "), "frame must start with the data field")
	require.True(t, strings.HasSuffix(body, "\n\n"), "frame must end with a blank line")

	var decoded Envelope
	payload := strings.TrimSuffix(strings.TrimPrefix(body, "data: "), "\n\n")
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, TypeReconcileCompleted, decoded.Type)
	assert.Equal(t, "roomop", decoded.Source)
	assert.Equal(t, "room-1", decoded.Data["roomId"])
}

func TestWriteHeartbeatFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	sw, err := NewStreamWriter(rec, time.Second)
	require.NoError(t, err)

	require.NoError(t, sw.WriteHeartbeat())
	assert.Equal(t, ": ping\n\n", rec.Body.String())
}

func TestServeDeliversBroadcastEvents(t *testing.T) {
	b := NewBroadcaster(16)
	sub := b.Subscribe()

	rec := httptest.NewRecorder()
	sw, err := NewStreamWriter(rec, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Serve(ctx, sub) }()

	b.Broadcast(NewEnvelope(TypeSpecAccepted, map[string]interface{}{"version": 2}))

	require.Eventually(t, func() bool {
		return strings.Contains(rec.Body.String(), "spec.accepted")
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestServeEmitsHeartbeatOnInactivity(t *testing.T) {
	b := NewBroadcaster(16)
	sub := b.Subscribe()

	rec := httptest.NewRecorder()
	sw, err := NewStreamWriter(rec, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, sw.Serve(ctx, sub))
	assert.Contains(t, rec.Body.String(), ": ping\n\n")
}

func TestServeStopsWhenSubscriptionCloses(t *testing.T) {
	b := NewBroadcaster(16)
	sub := b.Subscribe()

	rec := httptest.NewRecorder()
	sw, err := NewStreamWriter(rec, time.Minute)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- sw.Serve(context.Background(), sub) }()

	b.Unsubscribe(sub.ID)

	select {
	case err := <-done:
		assert.NoError(t, err, "closed subscription ends the stream cleanly")
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop after the subscription closed")
	}
}
