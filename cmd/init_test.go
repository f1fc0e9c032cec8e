package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nilaware/nilify/internal"
	"github.com/nilaware/nilify/rewrite"
)

func TestInitConfigurationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".nilify.yaml")

	require.NoError(t, initConfigurationFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var config rewrite.Config
	require.NoError(t, yaml.Unmarshal(data, &config))
	assert.Equal(t, "nilify", config.Name)
	assert.Equal(t, internal.DefaultRuleOrder, config.Rules)
}

func TestInitConfigurationFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".nilify.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: stale\n"), 0o644))

	require.NoError(t, initConfigurationFile(path))

	var config rewrite.Config
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &config))
	assert.Equal(t, "nilify", config.Name)
}

func TestParseRuleList(t *testing.T) {
	assert.Equal(t, []string{"sentinel", "boolean-flag"}, parseRuleList("sentinel,boolean-flag"))
	assert.Equal(t, []string{"sentinel"}, parseRuleList(" sentinel , "))
	assert.Nil(t, parseRuleList(""))
}
