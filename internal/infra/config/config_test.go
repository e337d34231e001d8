package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
library:
  categories:
    - id: sleep-stories
      name: Sleep Stories
      tracks:
        - id: t1
          title: Ocean Drift
          file: ocean.mp3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Player.InitialVolume)
	assert.Equal(t, 50, cfg.Player.HistoryCapacity)
	assert.Equal(t, 500, cfg.Player.PositionIntervalMs)
	assert.Equal(t, "Manual track skipping requires a subscription", cfg.Messages.SkipRestricted)
	require.Len(t, cfg.Library.Categories, 1)
	assert.Equal(t, "t1", cfg.Library.Categories[0].Tracks[0].ID)
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
player:
  initial_volume: 0.3
  history_capacity: 10
entitlement:
  settings:
    plan: premium
messages:
  skip_restricted: "Upgrade to skip"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.Player.InitialVolume)
	assert.Equal(t, 10, cfg.Player.HistoryCapacity)
	assert.Equal(t, "premium", cfg.Entitlement.Settings["plan"])
	assert.Equal(t, "Upgrade to skip", cfg.Messages.SkipRestricted)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SLUMBER_PLAN", "premium")
	t.Setenv("SLUMBER_MEDIA_DIR", "/tmp/media")
	path := writeConfig(t, `
entitlement:
  settings:
    plan: anonymous
library:
  media_dir: ./media
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "premium", cfg.Entitlement.Settings["plan"])
	assert.Equal(t, "/tmp/media", cfg.Library.MediaDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "player: [broken")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "volume out of range",
			content: `
player:
  initial_volume: 1.5
`,
		},
		{
			name: "track without title",
			content: `
library:
  categories:
    - id: ambient
      tracks:
        - id: t1
          file: a.mp3
`,
		},
		{
			name: "duplicate track ids across categories",
			content: `
library:
  categories:
    - id: ambient
      tracks:
        - id: t1
          title: Rain
          file: rain.mp3
    - id: sleep-stories
      tracks:
        - id: t1
          title: Rain Again
          file: rain2.mp3
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
