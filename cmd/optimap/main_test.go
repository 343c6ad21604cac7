package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScenarioConfigDefault(t *testing.T) {
	cfg, err := buildScenarioConfig("", "", overrides{}, true)
	require.NoError(t, err)
	assert.Equal(t, "quick", cfg.Name)
}

func TestBuildScenarioConfigPreset(t *testing.T) {
	cfg, err := buildScenarioConfig("", "clearstorm", overrides{
		duration: 2 * time.Second,
		workers:  3,
		keyRange: 64,
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "clearstorm", cfg.Name)
	assert.Equal(t, 2*time.Second, cfg.Duration)
	assert.Equal(t, 3, cfg.ClientWorkers)
	assert.Equal(t, 64, cfg.KeyRange)
	assert.True(t, cfg.EnableChaos, "chaos stays on unless the flag is given")
}

func TestBuildScenarioConfigUnknownPreset(t *testing.T) {
	_, err := buildScenarioConfig("", "resilience", overrides{}, true)
	assert.Error(t, err)
}

func TestBuildScenarioConfigExplicitFlags(t *testing.T) {
	cfg, err := buildScenarioConfig("", "quick", overrides{
		chaos:      false,
		setChaos:   true,
		audit:      false,
		setAudit:   true,
		maxRetries: 0,
		setRetries: true,
	}, true)
	require.NoError(t, err)

	assert.False(t, cfg.EnableChaos)
	assert.False(t, cfg.EnableAudit)
	assert.Zero(t, cfg.MaxRetries)

	_, err = buildScenarioConfig("", "quick", overrides{maxRetries: -1, setRetries: true}, true)
	assert.Error(t, err)
}

func TestBuildScenarioConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	content := `
scenario:
  name: from-file
  duration: 4s
  client:
    workers: 7
  chaos:
    enabled: true
    attack_types: [scan]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := buildScenarioConfig(path, "basic", overrides{}, false)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Name)
	assert.Equal(t, 7, cfg.ClientWorkers)
	assert.Equal(t, 4*time.Second, cfg.Duration)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scenario:\n  client:\n    workers: -1\n"), 0644))
	_, err = buildScenarioConfig(bad, "", overrides{}, false)
	assert.Error(t, err)
}

func TestRunDemo(t *testing.T) {
	require.NoError(t, runDemo(context.Background(), 6, 50))
}
