package viper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViperEnvKeyReplacer(t *testing.T) {
	t.Setenv("CARDTRACK_LOG_LEVEL", "debug")
	t.Setenv("CARDTRACK_DRAFT_PATH", "/tmp/draft.json")

	v := NewViper("nonexistent.yaml")

	assert.Equal(t, "debug", v.GetString("log-level"))
	assert.Equal(t, "/tmp/draft.json", v.GetString("draft.path"))
}

func TestNewViperEnvKeyReplacerProfileWithDashes(t *testing.T) {
	t.Setenv("CARDTRACK_SHOP_FRONT_BASE_URL", "http://tracker.local:9000")

	v := NewViper("nonexistent.yaml")
	v.Set("shop-front", map[string]any{})

	profile := v.Sub("shop-front")
	require.NotNil(t, profile)
	assert.Equal(t, "http://tracker.local:9000", profile.GetString("base-url"))
}

func TestInitializeDefaultViperWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardtrack", "config.yaml")

	v, err := InitializeDefaultViper(map[string]any{
		"default": map[string]any{"base-url": "http://127.0.0.1:8000"},
	}, path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", v.GetString("default.base-url"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "base-url")
}
