package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplicationWithDefaults(t *testing.T) {
	app, err := NewApplication(&Config{
		Silent:     true,
		ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"),
	})
	require.NoError(t, err)

	assert.Equal(t, "localhost:8090", app.httpServer.Addr)
	assert.Equal(t, "room.yaml", app.cfg.Operator.SpecPath)
	assert.NotNil(t, app.manager)
	assert.NotNil(t, app.source)
}

func TestNewApplicationAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "roomop.yaml")
	content := `
server:
  port: 7070
operator:
  specPath: from-config.yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	app, err := NewApplication(&Config{
		Silent:     true,
		ConfigPath: configPath,
		SpecPath:   "from-flag.yaml",
	})
	require.NoError(t, err)

	assert.Equal(t, "localhost:7070", app.httpServer.Addr)
	assert.Equal(t, "from-flag.yaml", app.cfg.Operator.SpecPath)
}

func TestNewApplicationRejectsMalformedConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "roomop.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [broken"), 0o644))

	_, err := NewApplication(&Config{Silent: true, ConfigPath: configPath})
	require.Error(t, err)
}
