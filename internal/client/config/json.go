package config

import (
	"encoding/json"
	"os"

	"qingplan/internal/client/models"
	"qingplan/internal/flagx"
	"qingplan/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "1500ms" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointAddr string            `json:"server_endpoint_addr"`
	CacheDSN           string            `json:"cache_dsn"`
	RemoteBaseURL      string            `json:"remote_base_url"`
	RemoteAppID        string            `json:"remote_app_id"`
	RemoteAppSecret    string            `json:"remote_app_secret"`
	RemoteAppToken     string            `json:"remote_app_token"`
	RemoteTables       map[string]string `json:"remote_tables"`
	DebounceDelay      timex.Duration    `json:"debounce_delay"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Only fields present in the file override the running defaults. Panics on
// read or unmarshal errors; a broken config file should stop startup.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.CacheDSN != "" {
		cfg.CacheDSN = jc.CacheDSN
	}
	if jc.RemoteBaseURL != "" {
		cfg.RemoteBaseURL = jc.RemoteBaseURL
	}
	if jc.RemoteAppID != "" {
		cfg.RemoteAppID = jc.RemoteAppID
	}
	if jc.RemoteAppSecret != "" {
		cfg.RemoteAppSecret = jc.RemoteAppSecret
	}
	if jc.RemoteAppToken != "" {
		cfg.RemoteAppToken = jc.RemoteAppToken
	}
	for name, id := range jc.RemoteTables {
		cfg.RemoteTables[models.Table(name)] = id
	}
	if jc.DebounceDelay.Duration != 0 {
		cfg.DebounceDelay = jc.DebounceDelay.Duration
	}
}
