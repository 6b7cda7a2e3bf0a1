package config

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, 24*time.Hour, cfg.TokenValidityDuration)
	assert.NotEmpty(t, cfg.OptimizeEndpoint)
}

func Test_parseJson_Overlay(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(map[string]any{
		"endpoint_addr":           ":9090",
		"secret_key":              "prod-secret",
		"token_validity_duration": "48h",
		"users_table_id":          "tblU",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":9090", cfg.EndpointAddr)
	assert.Equal(t, "prod-secret", cfg.SecretKey)
	assert.Equal(t, 48*time.Hour, cfg.TokenValidityDuration)
	assert.Equal(t, "tblU", cfg.UsersTableID)
	// absent fields keep defaults
	assert.Equal(t, "https://open.feishu.cn/open-apis", cfg.RemoteBaseURL)
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
	os.Args = []string{"cmd", "-a", ":7070", "-s", "key", "-t", "12", "-u", "tblU"}

	cfg := &Config{}
	require.NotPanics(t, func() { parseFlags(cfg) })

	assert.Equal(t, ":7070", cfg.EndpointAddr)
	assert.Equal(t, "key", cfg.SecretKey)
	assert.Equal(t, 12*time.Hour, cfg.TokenValidityDuration)
	assert.Equal(t, "tblU", cfg.UsersTableID)
}
