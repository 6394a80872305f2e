package diff

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomop/internal/client"
	"roomop/internal/spec"
)

func desiredSpec() *spec.RoomSpec {
	return &spec.RoomSpec{
		Metadata: spec.Metadata{Name: "demo", Version: 1},
		Spec: spec.RoomSpecData{
			RoomID: "room-1",
			Entities: []spec.Entity{
				{ID: "E1", Kind: "human", Visibility: spec.VisibilityTeam},
				{ID: "E2", Kind: "agent", Visibility: spec.VisibilityPublic},
			},
			Artifacts: []spec.Artifact{
				{Name: "A1", Type: "document", Workspace: "shared"},
			},
			Policies: spec.Policies{DmVisibilityDefault: spec.VisibilityTeam, MaxArtifactsPerEntity: 5},
		},
	}
}

// stateMatching derives an actual state that exactly matches the spec.
func stateMatching(s *spec.RoomSpec) *client.RoomState {
	state := &client.RoomState{
		RoomID:      s.Spec.RoomID,
		Policies:    map[string]string{},
		LastUpdated: time.Now(),
	}
	for _, e := range s.Spec.Entities {
		state.Entities = append(state.Entities, client.EntityState{
			ID:           e.ID,
			Kind:         e.Kind,
			Visibility:   e.Visibility,
			OwnerUserID:  e.OwnerUserID,
			Capabilities: e.Capabilities,
			Connected:    true,
		})
	}
	for _, a := range s.Spec.Artifacts {
		state.Artifacts = append(state.Artifacts, client.ArtifactState{
			Name: a.Name, Type: a.Type, Workspace: a.Workspace, Tags: a.Tags,
		})
	}
	state.Policies["dmVisibilityDefault"] = s.Spec.Policies.EffectiveDmVisibility()
	state.Policies["allowResourceCreation"] = "false"
	state.Policies["maxArtifactsPerEntity"] = "5"
	return state
}

func TestCompute_ConvergedStateProducesEmptyDiff(t *testing.T) {
	s := desiredSpec()
	ops := Compute(s, stateMatching(s))
	assert.Empty(t, ops)
}

func TestCompute_Deterministic(t *testing.T) {
	s := desiredSpec()
	s.Spec.Entities = append(s.Spec.Entities,
		spec.Entity{ID: "E9", Kind: "npc"},
		spec.Entity{ID: "E3", Kind: "npc"},
	)
	state := &client.RoomState{
		Entities: []client.EntityState{
			{ID: "E5", Kind: "npc", Visibility: spec.VisibilityTeam},
			{ID: "E4", Kind: "npc", Visibility: spec.VisibilityTeam},
		},
	}

	first := Compute(s, state)
	second := Compute(s, state)

	require.NotEmpty(t, first)
	assert.True(t, reflect.DeepEqual(first, second), "identical inputs must yield identical diffs")
}

func TestCompute_OrderingAddsUpdatesRemoves(t *testing.T) {
	s := desiredSpec()
	// E1 drifts (visibility change), E2 stays, E3 is new, A2 is new.
	s.Spec.Entities[0].Visibility = spec.VisibilityPublic
	s.Spec.Entities = append(s.Spec.Entities, spec.Entity{ID: "E3", Kind: "npc"})
	s.Spec.Artifacts = append(s.Spec.Artifacts, spec.Artifact{Name: "A2", Type: "note", Workspace: "shared"})

	state := stateMatching(desiredSpec())
	// E0 and A0 exist only in the room.
	state.Entities = append(state.Entities, client.EntityState{ID: "E0", Kind: "npc", Visibility: spec.VisibilityTeam})
	state.Artifacts = append(state.Artifacts, client.ArtifactState{Name: "A0", Type: "note", Workspace: "shared"})

	ops := Compute(s, state)

	var got []OperationType
	var targets []string
	for _, op := range ops {
		got = append(got, op.Type)
		targets = append(targets, op.TargetID)
	}

	assert.Equal(t, []OperationType{
		OpAddArtifact,       // A2
		OpAddEntity,         // E3
		OpUpdateEntityPolicy, // E1
		OpRemoveArtifact,    // A0
		OpRemoveEntity,      // E0
	}, got)
	assert.Equal(t, []string{"A2", "E3", "E1", "A0", "E0"}, targets)
}

func TestCompute_WithinClassOrderedByIdentifier(t *testing.T) {
	s := &spec.RoomSpec{Spec: spec.RoomSpecData{RoomID: "room-1"}}
	state := &client.RoomState{
		Entities: []client.EntityState{
			{ID: "zeta", Visibility: spec.VisibilityTeam},
			{ID: "alpha", Visibility: spec.VisibilityTeam},
			{ID: "mid", Visibility: spec.VisibilityTeam},
		},
		Policies: map[string]string{
			"dmVisibilityDefault":   "team",
			"allowResourceCreation": "false",
			"maxArtifactsPerEntity": "0",
		},
	}

	ops := Compute(s, state)

	require.Len(t, ops, 3)
	assert.Equal(t, "alpha", ops[0].TargetID)
	assert.Equal(t, "mid", ops[1].TargetID)
	assert.Equal(t, "zeta", ops[2].TargetID)
}

func TestCompute_NilInputsTreatedAsEmpty(t *testing.T) {
	assert.Empty(t, Compute(nil, nil))

	s := desiredSpec()
	ops := Compute(s, nil)
	// Everything desired becomes an add, plus the initial policy apply.
	require.Len(t, ops, 4)
	assert.Equal(t, OpAddArtifact, ops[0].Type)
	assert.Equal(t, OpAddEntity, ops[1].Type)
	assert.Equal(t, OpAddEntity, ops[2].Type)
	assert.Equal(t, OpUpdatePolicy, ops[3].Type)
}

func TestCompute_PolicyDrift(t *testing.T) {
	s := desiredSpec()
	state := stateMatching(s)
	state.Policies["dmVisibilityDefault"] = spec.VisibilityOwner

	ops := Compute(s, state)

	require.Len(t, ops, 1)
	op := ops[0]
	assert.Equal(t, OpUpdatePolicy, op.Type)
	assert.Equal(t, "room", op.TargetID)

	after, ok := op.After.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, spec.VisibilityTeam, after["dmVisibilityDefault"])
}

func TestCompute_CapabilityDriftTriggersUpdate(t *testing.T) {
	s := desiredSpec()
	s.Spec.Entities[0].Capabilities = []string{"chat", "search"}
	state := stateMatching(desiredSpec())

	ops := Compute(s, state)

	require.Len(t, ops, 1)
	assert.Equal(t, OpUpdateEntityPolicy, ops[0].Type)
	assert.Equal(t, "E1", ops[0].TargetID)

	// Order-insensitive capability comparison: no drift when sets match.
	state.Entities[0].Capabilities = []string{"search", "chat"}
	assert.Empty(t, Compute(s, state))
}
