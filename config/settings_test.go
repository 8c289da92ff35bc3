package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsPath(t *testing.T) string {
	t.Helper()
	t.Setenv("COSINE_THRESHOLD", "")
	t.Setenv("EUCLIDEAN_THRESHOLD", "")
	return filepath.Join(t.TempDir(), "settings.json")
}

func TestLoadSettingsDefaults(t *testing.T) {
	s := LoadSettings(settingsPath(t))
	got := s.Thresholds()
	assert.Equal(t, 0.6, got.Cosine)
	assert.Equal(t, 0.6, got.Euclidean)
}

func TestLoadSettingsFromEnv(t *testing.T) {
	path := settingsPath(t)
	t.Setenv("COSINE_THRESHOLD", "0.8")
	t.Setenv("EUCLIDEAN_THRESHOLD", "12.5")

	got := LoadSettings(path).Thresholds()
	assert.Equal(t, 0.8, got.Cosine)
	assert.Equal(t, 12.5, got.Euclidean)
}

func TestLoadSettingsInvalidEnvFallsBack(t *testing.T) {
	path := settingsPath(t)
	t.Setenv("COSINE_THRESHOLD", "not-a-number")
	t.Setenv("EUCLIDEAN_THRESHOLD", "-3")

	got := LoadSettings(path).Thresholds()
	assert.Equal(t, 0.6, got.Cosine)
	assert.Equal(t, 0.6, got.Euclidean)
}

func TestLoadSettingsFileOverridesEnv(t *testing.T) {
	path := settingsPath(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"cosine_threshold": 0.45, "euclidean_threshold": 9}`), 0644))

	got := LoadSettings(path).Thresholds()
	assert.Equal(t, 0.45, got.Cosine)
	assert.Equal(t, 9.0, got.Euclidean)
}

func TestLoadSettingsCorruptFileKeepsDefaults(t *testing.T) {
	path := settingsPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	got := LoadSettings(path).Thresholds()
	assert.Equal(t, 0.6, got.Cosine)
	assert.Equal(t, 0.6, got.Euclidean)
}

func TestSetThresholdsPersistsAcrossReload(t *testing.T) {
	path := settingsPath(t)
	s := LoadSettings(path)

	require.NoError(t, s.SetThresholds(Thresholds{Cosine: 0.72, Euclidean: 4.2}))

	reloaded := LoadSettings(path).Thresholds()
	assert.Equal(t, 0.72, reloaded.Cosine)
	assert.Equal(t, 4.2, reloaded.Euclidean)
}
