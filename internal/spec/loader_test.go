package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `apiVersion: v1
kind: RoomSpec
metadata:
  name: demo-room
  version: 2
spec:
  roomId: room-1
  entities:
    - id: E1
      kind: human
      visibility: owner
      ownerUserId: user-1
      capabilities: [chat]
      policy:
        allow_commands_from: owner
        sandbox_mode: true
        env_whitelist: [PATH]
        scopes: [read]
  artifacts:
    - name: A1
      type: document
      workspace: shared
      tags: [seed]
  policies:
    dmVisibilityDefault: team
    allowResourceCreation: true
    maxArtifactsPerEntity: 10
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "room-1", s.Spec.RoomID)
	assert.Equal(t, 2, s.Metadata.Version)

	require.Len(t, s.Spec.Entities, 1)
	entity := s.Spec.Entities[0]
	assert.Equal(t, "E1", entity.ID)
	assert.Equal(t, "user-1", entity.OwnerUserID)
	assert.Equal(t, "owner", entity.Policy.AllowCommandsFrom)
	assert.True(t, entity.Policy.SandboxMode)
	assert.Equal(t, []string{"PATH"}, entity.Policy.EnvWhitelist)

	require.Len(t, s.Spec.Artifacts, 1)
	assert.Equal(t, "shared", s.Spec.Artifacts[0].Workspace)

	assert.True(t, s.Spec.Policies.AllowResourceCreation)
	assert.Equal(t, 10, s.Spec.Policies.MaxArtifactsPerEntity)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("spec: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "room-1", s.Spec.RoomID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
