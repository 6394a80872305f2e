package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specVersion(version int, entityIDs []string, artifactNames []string) *RoomSpec {
	s := &RoomSpec{
		Metadata: Metadata{Name: "demo", Version: version},
		Spec:     RoomSpecData{RoomID: "room-1"},
	}
	for _, id := range entityIDs {
		s.Spec.Entities = append(s.Spec.Entities, Entity{ID: id, Kind: "agent"})
	}
	for _, name := range artifactNames {
		s.Spec.Artifacts = append(s.Spec.Artifacts, Artifact{Name: name, Type: "document", Workspace: "shared"})
	}
	return s
}

func TestValidateUpgrade_VersionMustIncrease(t *testing.T) {
	v1 := specVersion(1, nil, nil)
	v2 := specVersion(2, nil, nil)

	sameVersion := ValidateUpgrade(v1, v1)
	require.False(t, sameVersion.IsValid())
	assert.Contains(t, sameVersion.Errors[0], "must be greater than current version")

	downgrade := ValidateUpgrade(v2, v1)
	require.False(t, downgrade.IsValid())
	assert.Equal(t, 2, downgrade.CurrentVersion)
	assert.Equal(t, 1, downgrade.NewVersion)
}

func TestValidateUpgrade_RoomIDImmutable(t *testing.T) {
	current := specVersion(1, nil, nil)
	next := specVersion(2, nil, nil)
	next.Spec.RoomID = "room-2"

	result := ValidateUpgrade(current, next)

	require.False(t, result.IsValid())
	assert.Contains(t, result.Errors, "RoomId cannot be changed")
}

func TestValidateUpgrade_RemovalsAreWarnings(t *testing.T) {
	current := specVersion(1, []string{"E1", "E2"}, []string{"A1", "A2"})
	next := specVersion(2, []string{"E1"}, []string{"A1"})

	result := ValidateUpgrade(current, next)

	assert.True(t, result.IsValid(), "removals must not invalidate the upgrade")
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "Entities will be removed: E2")
	assert.Contains(t, result.Warnings[1], "Artifacts will be removed: A2")
}

func TestValidateUpgrade_UnrelatedChangesIgnored(t *testing.T) {
	current := specVersion(1, []string{"E1", "E2"}, []string{"A1"})
	next := specVersion(2, []string{"E2", "E1"}, []string{"A1"})
	next.Spec.Entities[0].Capabilities = []string{"chat"}
	next.Spec.Artifacts[0].Tags = []string{"updated"}

	result := ValidateUpgrade(current, next)

	assert.True(t, result.IsValid())
	assert.Empty(t, result.Warnings, "reordering and field changes are not removals")
}

func TestValidateUpgrade_VersionErrorShortCircuits(t *testing.T) {
	current := specVersion(3, []string{"E1"}, nil)
	next := specVersion(2, nil, nil)
	next.Spec.RoomID = "room-2"

	result := ValidateUpgrade(current, next)

	require.Len(t, result.Errors, 1, "terminal version error suppresses further checks")
	assert.Contains(t, result.Errors[0], "must be greater")
	assert.Empty(t, result.Warnings)
}
