package config

import (
	"encoding/json"
	"os"
	"time"

	"qingplan/internal/flagx"
	"qingplan/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "24h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	RemoteBaseURL         string         `json:"remote_base_url"`
	RemoteAppID           string         `json:"remote_app_id"`
	RemoteAppSecret       string         `json:"remote_app_secret"`
	RemoteAppToken        string         `json:"remote_app_token"`
	UsersTableID          string         `json:"users_table_id"`
	OptimizeEndpoint      string         `json:"optimize_endpoint"`
	OptimizeAPIKey        string         `json:"optimize_api_key"`
	OptimizeModel         string         `json:"optimize_model"`
}

// parseJson overlays Config with values loaded from a JSON file selected
// via the -c or -config command-line flags; without the flag no JSON file
// is loaded. Only fields present in the file override the running values.
// Panics on read or unmarshal errors.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	}
	if c.RemoteBaseURL != "" {
		config.RemoteBaseURL = c.RemoteBaseURL
	}
	if c.RemoteAppID != "" {
		config.RemoteAppID = c.RemoteAppID
	}
	if c.RemoteAppSecret != "" {
		config.RemoteAppSecret = c.RemoteAppSecret
	}
	if c.RemoteAppToken != "" {
		config.RemoteAppToken = c.RemoteAppToken
	}
	if c.UsersTableID != "" {
		config.UsersTableID = c.UsersTableID
	}
	if c.OptimizeEndpoint != "" {
		config.OptimizeEndpoint = c.OptimizeEndpoint
	}
	if c.OptimizeAPIKey != "" {
		config.OptimizeAPIKey = c.OptimizeAPIKey
	}
	if c.OptimizeModel != "" {
		config.OptimizeModel = c.OptimizeModel
	}
}
