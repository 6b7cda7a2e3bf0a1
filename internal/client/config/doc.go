// Package config loads runtime configuration for the CLI client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the companion server
//	-f string   SQLite DSN of the local cache
//	-r string   base URL of the remote table API
//	-t string   datastore app token
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "cache_dsn": "file:qingplan.db",
//	  "remote_base_url": "https://open.feishu.cn/open-apis",
//	  "remote_app_id": "cli_xxx",
//	  "remote_app_secret": "...",
//	  "remote_app_token": "bascnXXX",
//	  "remote_tables": {
//	    "columns": "tblA", "tasks": "tblB", "ideas": "tblC",
//	    "documents": "tblD", "documentFolders": "tblE", "users": "tblF"
//	  },
//	  "debounce_delay": "1500ms"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
