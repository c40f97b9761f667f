package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Stripe struct {
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"stripe"`
	Name string `mapstructure:"name"`
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "billing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\nstripe:\n  api_key: from-file\n"), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("STRIPE_API_KEY", "sk_test_env")
	t.Setenv("BILLING_SERVER_PORT", "9090")

	var cfg testConfig
	err := Load(Options{
		ServiceName: "billing",
		EnvBindings: map[string]string{"stripe.api_key": "STRIPE_API_KEY"},
		Defaults:    map[string]interface{}{"name": "billing"},
	}, &cfg)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sk_test_env", cfg.Stripe.APIKey)
	assert.Equal(t, "billing", cfg.Name)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir())
	t.Setenv("APP_ENV", "nowhere")

	var cfg testConfig
	err := Load(Options{
		ServiceName: "billing",
		Defaults:    map[string]interface{}{"server.port": 8081},
	}, &cfg)

	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoad_BrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "billing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	var cfg testConfig
	assert.Error(t, Load(Options{ServiceName: "billing"}, &cfg))
}
