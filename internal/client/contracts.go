package client

import (
	"context"

	"roomop/internal/spec"
)

// RoomClient manages entity membership of a room.
type RoomClient interface {
	// GetEntities fetches the current entities of the room.
	GetEntities(ctx context.Context, roomID string) ([]EntityState, error)

	// JoinEntity adds an entity to the room. Re-joining an existing ID is a
	// no-op success.
	JoinEntity(ctx context.Context, roomID string, entity spec.Entity) error

	// KickEntity removes an entity from the room. Kicking an absent ID is a
	// no-op success.
	KickEntity(ctx context.Context, roomID, entityID string) error

	// UpdateEntityPolicy replaces the policy-related fields of an entity.
	UpdateEntityPolicy(ctx context.Context, roomID string, entity spec.Entity) error
}

// ArtifactClient manages the artifacts of a room.
type ArtifactClient interface {
	ListArtifacts(ctx context.Context, roomID string) ([]ArtifactState, error)
	AddArtifact(ctx context.Context, roomID string, artifact spec.Artifact) error
	DeleteArtifact(ctx context.Context, roomID, name string) error
}

// PolicyClient manages room-wide policy.
type PolicyClient interface {
	GetPolicies(ctx context.Context, roomID string) (map[string]string, error)
	ApplyPolicy(ctx context.Context, roomID, name, value string) error
}

// CapabilityClient reads the registry of external capability providers.
// Availability failures are reported to the caller but must not be treated
// as fatal to a reconcile cycle.
type CapabilityClient interface {
	ListProviders(ctx context.Context) ([]string, error)
}
