package client

import "time"

// RoomState is the observed live state of one room, assembled fresh every
// reconcile cycle by querying the collaborators. It is never persisted.
type RoomState struct {
	RoomID    string            `json:"roomId"`
	Entities  []EntityState     `json:"entities"`
	Artifacts []ArtifactState   `json:"artifacts"`
	Policies  map[string]string `json:"policies"`

	// Providers lists the currently registered capability providers, or is
	// nil when the capability registry was unavailable during assembly.
	Providers []string `json:"providers,omitempty"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// EntityState is the observed state of one room member.
type EntityState struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	DisplayName  string   `json:"displayName,omitempty"`
	Visibility   string   `json:"visibility"`
	OwnerUserID  string   `json:"ownerUserId,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	Connected    bool     `json:"connected"`
}

// ArtifactState is the observed state of one room artifact.
type ArtifactState struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Workspace   string   `json:"workspace"`
	Tags        []string `json:"tags,omitempty"`
	ContentHash string   `json:"contentHash,omitempty"`
	Promoted    bool     `json:"promoted"`
}
