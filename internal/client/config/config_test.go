package config

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qingplan/internal/client/models"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerEndpointAddr)
	assert.Equal(t, "file:qingplan.db", cfg.CacheDSN)
	assert.Equal(t, 1500*time.Millisecond, cfg.DebounceDelay)
	assert.NotNil(t, cfg.RemoteTables)
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"server_endpoint_addr": "http://plan.example:9000",
		"remote_app_id":        "cli_abc",
		"remote_tables":        map[string]string{"tasks": "tblT", "columns": "tblC"},
		"debounce_delay":       "2s",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{RemoteTables: map[models.Table]string{}}
		parseJson(cfg)

		assert.Equal(t, "http://plan.example:9000", cfg.ServerEndpointAddr)
		assert.Equal(t, "cli_abc", cfg.RemoteAppID)
		assert.Equal(t, "tblT", cfg.RemoteTables[models.TableTasks])
		assert.Equal(t, 2*time.Second, cfg.DebounceDelay)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{ServerEndpointAddr: "defaults:1234", DebounceDelay: 42 * time.Second}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.ServerEndpointAddr)
		assert.Equal(t, 42*time.Second, cfg.DebounceDelay)
	})

	t.Run("absent fields keep defaults", func(t *testing.T) {
		partial := writeTempJSON(t, map[string]any{"remote_app_token": "bascn123"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "bascn123", cfg.RemoteAppToken)
		assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerEndpointAddr)
		assert.Equal(t, 1500*time.Millisecond, cfg.DebounceDelay)
	})
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected *Config
		name     string
		args     []string
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "http://plan.example", "-f", "file:other.db", "-r", "https://api.example", "-t", "bascnZZZ"},
			expected: &Config{
				ServerEndpointAddr: "http://plan.example",
				CacheDSN:           "file:other.db",
				RemoteBaseURL:      "https://api.example",
				RemoteAppToken:     "bascnZZZ",
			},
		},
		{
			name:     "unknown flags filtered out",
			args:     []string{"cmd", "-a", "http://plan.example", "-z", "ignored"},
			expected: &Config{ServerEndpointAddr: "http://plan.example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
			os.Args = tt.args

			cfg := &Config{}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Empty(t, cmp.Diff(cfg, tt.expected))
		})
	}
}
