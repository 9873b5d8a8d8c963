package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/studydesk/pkg/core"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, 3, cfg.MinAutosaveLength)
	assert.Equal(t, 200, cfg.ListLimit)
	assert.Equal(t, "Study Assistant", cfg.NotifyTitle)
	assert.True(t, cfg.Speech)
	assert.False(t, cfg.Versioning)
	assert.Equal(t, core.DefaultLevels, cfg.Levels)
	assert.Empty(t, cfg.File)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `autosave:
  interval: 10s
  min_length: 8
notify:
  title: Desk
  speech: false
levels: [0, 50, 150]
versioning: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "studydesk.yaml"), []byte(yaml), 0644))
	t.Setenv("STUDYDESK_AUTOSAVE_MIN_LENGTH", "12")
	t.Setenv("STUDYDESK_AI_MODEL", "claude-test")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, 12, cfg.MinAutosaveLength, "env overrides the file")
	assert.Equal(t, "Desk", cfg.NotifyTitle)
	assert.False(t, cfg.Speech)
	assert.True(t, cfg.Versioning)
	assert.Equal(t, []int{0, 50, 150}, cfg.Levels)
	assert.Equal(t, "claude-test", cfg.AIModel)
	assert.Equal(t, filepath.Join(dir, "studydesk.yaml"), cfg.File)
}

func TestLoadConfig_LevelsFromEnv(t *testing.T) {
	t.Setenv("STUDYDESK_LEVELS", "0,10,20")
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 10, 20}, cfg.Levels)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("descending levels", func(t *testing.T) {
		t.Setenv("STUDYDESK_LEVELS", "0,20,10")
		_, err := LoadConfig(t.TempDir())
		assert.Error(t, err)
	})
	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "studydesk.yaml"), []byte("autosave: [unclosed"), 0644))
		_, err := LoadConfig(dir)
		assert.Error(t, err)
	})
}
