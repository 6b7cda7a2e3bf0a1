package config

import (
	"flag"
	"os"

	"qingplan/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the companion server
//	-f string   SQLite DSN of the local cache
//	-r string   base URL of the remote table API
//	-t string   datastore app token
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-r", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the companion server")
	fs.StringVar(&cfg.CacheDSN, "f", cfg.CacheDSN, "SQLite DSN of the local cache")
	fs.StringVar(&cfg.RemoteBaseURL, "r", cfg.RemoteBaseURL, "base URL of the remote table API")
	fs.StringVar(&cfg.RemoteAppToken, "t", cfg.RemoteAppToken, "datastore app token")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
