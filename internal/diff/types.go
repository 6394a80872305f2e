package diff

// OperationType tags the kind of change an Operation represents.
type OperationType string

const (
	// OpAddEntity joins a desired entity that is absent from the room.
	OpAddEntity OperationType = "AddEntity"

	// OpRemoveEntity kicks an entity that is no longer desired.
	OpRemoveEntity OperationType = "RemoveEntity"

	// OpUpdateEntityPolicy aligns an existing entity's policy-relevant
	// fields with the spec.
	OpUpdateEntityPolicy OperationType = "UpdateEntityPolicy"

	// OpAddArtifact creates a desired artifact that is absent from the room.
	OpAddArtifact OperationType = "AddArtifact"

	// OpRemoveArtifact deletes an artifact that is no longer desired.
	OpRemoveArtifact OperationType = "RemoveArtifact"

	// OpUpdatePolicy aligns the room-wide policies with the spec.
	OpUpdatePolicy OperationType = "UpdatePolicy"
)

// Operation is one typed change computed by the engine. Operations are
// computed, never hand-constructed; each run produces a fresh list that
// callers must treat as immutable.
type Operation struct {
	// Type is the change variant.
	Type OperationType `json:"type"`

	// TargetID is the affected entity ID, artifact name, or "room" for
	// room-wide policy changes.
	TargetID string `json:"targetId"`

	// Before is the observed payload prior to the change, nil for adds.
	Before interface{} `json:"before,omitempty"`

	// After is the desired payload, nil for removes.
	After interface{} `json:"after,omitempty"`
}

// classRank orders operation classes: all adds precede all updates, which
// precede all removes, so a cycle never transiently violates referential
// expectations (e.g. removing an owner before its replacement joined).
func classRank(t OperationType) int {
	switch t {
	case OpAddEntity, OpAddArtifact:
		return 0
	case OpUpdateEntityPolicy, OpUpdatePolicy:
		return 1
	case OpRemoveEntity, OpRemoveArtifact:
		return 2
	default:
		return 3
	}
}

// IsRemoval reports whether t deletes something from the room.
func IsRemoval(t OperationType) bool {
	return t == OpRemoveEntity || t == OpRemoveArtifact
}
