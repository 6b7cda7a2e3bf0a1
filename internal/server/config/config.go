// Package config handles configuration for the companion server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the companion server.
//
// Fields:
//   - EndpointAddr: bind address for the public HTTP endpoint.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - TokenValidityDuration: session token lifetime.
//   - RemoteBaseURL / RemoteAppID / RemoteAppSecret / RemoteAppToken:
//     coordinates of the remote table API; the server reads the users table
//     through the same client the CLI uses for content tables.
//   - UsersTableID: physical id of the users table.
//   - OptimizeEndpoint / OptimizeAPIKey / OptimizeModel: model provider the
//     optimize endpoint proxies to; the API key is the fallback for clients
//     that bring none.
type Config struct {
	EndpointAddr          string
	SecretKey             string
	TokenValidityDuration time.Duration
	RemoteBaseURL         string
	RemoteAppID           string
	RemoteAppSecret       string
	RemoteAppToken        string
	UsersTableID          string
	OptimizeEndpoint      string
	OptimizeAPIKey        string
	OptimizeModel         string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 24 * time.Hour
	c.RemoteBaseURL = "https://open.feishu.cn/open-apis"
	c.OptimizeEndpoint = "https://api.deepseek.com/chat/completions"
	c.OptimizeModel = "deepseek-chat"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
