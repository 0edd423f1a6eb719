package dronestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigFillsDefaults(t *testing.T) {
	cfg, migrated, err := ParseConfig([]byte(`
version: 2
capacity_tiers: [30, 6, 12, 6]
tip_chance: 25
deploy:
  max_distance: 5
ui:
  button_width: 100
`))
	require.NoError(t, err)
	assert.False(t, migrated)

	assert.Equal(t, []int{6, 12, 30}, cfg.CapacityTiers)
	assert.Equal(t, 25.0, cfg.TipChance)
	assert.Equal(t, 5.0, cfg.Deploy.MaxDistance)
	assert.Equal(t, "minecraft:chest", cfg.Deploy.CostItem)
	assert.True(t, cfg.Deploy.AutoDeploy)
	assert.Equal(t, 100, cfg.UI.ButtonWidth)
	assert.Equal(t, 26, cfg.UI.ButtonHeight)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
}

func TestParseConfigEmptyDocument(t *testing.T) {
	cfg, _, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestParseConfigMigratesVersionOne(t *testing.T) {
	cfg, migrated, err := ParseConfig([]byte(`
capacity_amounts_requiring_permission: [12, 6]
reconcile_interval: 1m
`))
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.Equal(t, ConfigVersion, cfg.Version)
	assert.Equal(t, []int{6, 12}, cfg.CapacityTiers)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
}

func TestParseConfigMigratesPascalCaseKeys(t *testing.T) {
	cfg, migrated, err := ParseConfig([]byte(`
CapacityAmountsRequiringPermission: [18, 6, 18]
DefaultCapacity: 6
`))
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.Equal(t, []int{6, 18}, cfg.CapacityTiers)
	assert.Equal(t, 6, cfg.DefaultCapacity)
}

func TestParseConfigRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"tier too large":    "capacity_tiers: [100]",
		"tip chance":        "tip_chance: 150",
		"wrong type":        "deploy: {auto_deploy: maybe}",
		"negative distance": "deploy: {max_distance: -1}",
		"not yaml":          "capacity_tiers: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, _, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
			assert.Equal(t, Defaults(), cfg)
		})
	}
}

func TestLoadConfigWritesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dronestorage.yaml")

	cfg, err := LoadConfig(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	again, _, err := ParseConfig(b)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigFallsBackOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dronestorage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tip_chance: lots"), 0o644))

	cfg, err := LoadConfig(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	// The broken file is left for the operator to fix.
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tip_chance: lots", string(b))
}

func TestLoadConfigSavesMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dronestorage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capacity_amounts_requiring_permission: [6, 42]\n"), 0o644))

	cfg, err := LoadConfig(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []int{6, 42}, cfg.CapacityTiers)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), legacyTiersKey)
	assert.Contains(t, string(b), "capacity_tiers")
}

func TestNormalizeClamps(t *testing.T) {
	cfg := Config{
		DefaultCapacity: -3,
		CapacityTiers:   []int{0, -1, 50},
		TipChance:       -5,
		DisallowedItems: []string{" minecraft:tnt ", ""},
	}
	cfg.Normalize()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0, cfg.DefaultCapacity)
	assert.Equal(t, []int{MaxCapacity}, cfg.CapacityTiers)
	assert.Equal(t, 0.0, cfg.TipChance)
	assert.Equal(t, []string{"minecraft:tnt"}, cfg.DisallowedItems)
	assert.Equal(t, Defaults().UI, cfg.UI)
}
