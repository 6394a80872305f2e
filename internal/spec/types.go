package spec

// EntityKind is the role an entity plays inside a room.
type EntityKind string

const (
	// KindHuman is a human participant.
	KindHuman EntityKind = "human"

	// KindAgent is an autonomous agent participant.
	KindAgent EntityKind = "agent"

	// KindNPC is a scripted, non-interactive participant.
	KindNPC EntityKind = "npc"

	// KindOrchestrator coordinates other entities in the room.
	KindOrchestrator EntityKind = "orchestrator"
)

// Visibility values for entities and direct messages.
const (
	VisibilityPublic = "public"
	VisibilityTeam   = "team"
	VisibilityOwner  = "owner"
)

// DefaultDmVisibility is assumed when a spec leaves the room-wide DM
// visibility policy unset.
const DefaultDmVisibility = VisibilityTeam

// RoomSpec is the declared desired state of a room. The operator only ever
// reads it; ownership stays with whoever submits a new spec version.
type RoomSpec struct {
	APIVersion string   `yaml:"apiVersion" json:"apiVersion"`
	Kind       string   `yaml:"kind" json:"kind"`
	Metadata   Metadata `yaml:"metadata" json:"metadata"`
	Spec       RoomSpecData `yaml:"spec" json:"spec"`
}

// Metadata identifies a spec document.
type Metadata struct {
	// Name is a human-readable label for the spec document.
	Name string `yaml:"name" json:"name"`

	// Version must be a positive integer and strictly increase across
	// upgrades of the same room.
	Version int `yaml:"version" json:"version"`
}

// RoomSpecData is the desired room content.
type RoomSpecData struct {
	// RoomID is the immutable identity of the room.
	RoomID string `yaml:"roomId" json:"roomId"`

	// Entities is the ordered list of desired room members, unique by ID.
	Entities []Entity `yaml:"entities" json:"entities"`

	// Artifacts is the ordered list of desired artifacts, unique by Name.
	Artifacts []Artifact `yaml:"artifacts" json:"artifacts"`

	// Policies holds room-wide policy defaults.
	Policies Policies `yaml:"policies" json:"policies"`
}

// Entity describes one desired room member.
type Entity struct {
	ID           string       `yaml:"id" json:"id"`
	Kind         string       `yaml:"kind" json:"kind"`
	DisplayName  string       `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	Visibility   string       `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	OwnerUserID  string       `yaml:"ownerUserId,omitempty" json:"ownerUserId,omitempty"`
	Capabilities []string     `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	Policy       EntityPolicy `yaml:"policy,omitempty" json:"policy,omitempty"`
}

// EntityPolicy constrains what an entity may do inside the room.
type EntityPolicy struct {
	AllowCommandsFrom string   `yaml:"allow_commands_from,omitempty" json:"allowCommandsFrom,omitempty"`
	SandboxMode       bool     `yaml:"sandbox_mode,omitempty" json:"sandboxMode,omitempty"`
	EnvWhitelist      []string `yaml:"env_whitelist,omitempty" json:"envWhitelist,omitempty"`
	Scopes            []string `yaml:"scopes,omitempty" json:"scopes,omitempty"`
}

// Artifact describes one desired room artifact.
type Artifact struct {
	Name      string   `yaml:"name" json:"name"`
	Type      string   `yaml:"type" json:"type"`
	Workspace string   `yaml:"workspace" json:"workspace"`
	Tags      []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Content   string   `yaml:"content,omitempty" json:"content,omitempty"`
}

// Policies holds room-wide policy defaults.
type Policies struct {
	// DmVisibilityDefault controls who sees direct messages by default.
	// Empty is allowed and resolves to DefaultDmVisibility with a warning.
	DmVisibilityDefault string `yaml:"dmVisibilityDefault,omitempty" json:"dmVisibilityDefault,omitempty"`

	AllowResourceCreation bool `yaml:"allowResourceCreation,omitempty" json:"allowResourceCreation,omitempty"`
	MaxArtifactsPerEntity int  `yaml:"maxArtifactsPerEntity,omitempty" json:"maxArtifactsPerEntity,omitempty"`
}

// EffectiveDmVisibility resolves the DM visibility default, substituting the
// system default when the spec leaves it empty.
func (p Policies) EffectiveDmVisibility() string {
	if p.DmVisibilityDefault == "" {
		return DefaultDmVisibility
	}
	return p.DmVisibilityDefault
}
