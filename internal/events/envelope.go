package events

import "time"

// Event types emitted by the operator.
const (
	// TypeConnected greets a freshly connected stream client.
	TypeConnected = "connected"

	// TypeReconcileCompleted summarizes a finished reconcile cycle.
	TypeReconcileCompleted = "reconcile.completed"

	// TypeReconcileBlocked reports a cycle halted by guardrails.
	TypeReconcileBlocked = "reconcile.blocked"

	// TypeReconcileFailed reports a cycle aborted by a collaborator failure.
	TypeReconcileFailed = "reconcile.failed"

	// TypeSpecAccepted reports a new spec version accepted as desired state.
	TypeSpecAccepted = "spec.accepted"

	// TypeSpecRejected reports a spec version that failed validation.
	TypeSpecRejected = "spec.rejected"
)

// Envelope is one operator event. It is immutable once constructed.
type Envelope struct {
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEnvelope constructs a timestamped envelope from the operator source.
func NewEnvelope(eventType string, data map[string]interface{}) Envelope {
	return Envelope{
		Source:    "roomop",
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Data:      data,
	}
}
