package config

import (
	"time"

	"qingplan/internal/client/models"
)

// Config holds runtime settings for the CLI client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the companion server (auth, optimize,
//     websocket hub).
//   - CacheDSN: SQLite DSN of the local cache database.
//   - RemoteBaseURL: base URL of the remote table API.
//   - RemoteAppID / RemoteAppSecret: app credentials exchanged for tenant
//     access tokens.
//   - RemoteAppToken: identifier of the datastore app holding the tables.
//   - RemoteTables: logical-table name to physical table id.
//   - DebounceDelay: quiet period for single-field sync.
type Config struct {
	ServerEndpointAddr string
	CacheDSN           string
	RemoteBaseURL      string
	RemoteAppID        string
	RemoteAppSecret    string
	RemoteAppToken     string
	RemoteTables       map[models.Table]string
	DebounceDelay      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.CacheDSN = "file:qingplan.db"
	c.RemoteBaseURL = "https://open.feishu.cn/open-apis"
	c.RemoteTables = map[models.Table]string{}
	c.DebounceDelay = 1500 * time.Millisecond
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
