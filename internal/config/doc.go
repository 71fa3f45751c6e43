// Package config loads the tonearm client configuration.
//
// # Resolution
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tonearm/config.toml
//  3. If the file doesn't exist, use defaults
//  4. If the file exists but a field is missing or blank, use its default
//
// # Fields
//
//	api_bind           = "127.0.0.1:8080"                     # host:port or URL of the daemon
//	log_file           = "~/.local/state/tonearm/tonearm.log" # JSON log lines
//	cache_dir          = "~/.cache/tonearm"                   # logos.db lives here
//	request_timeout    = "10s"                                # plain reads
//	reconnect_base     = "1s"                                 # push channel backoff base
//	upload_clear_delay = "3s"                                 # success message lifetime
//	media_session      = true                                 # publish over MPRIS
//
// Durations are Go duration strings and must be positive. Paths get tilde
// expansion and are made absolute.
//
// Missing config files are not an error. Malformed TOML and unparseable
// durations are.
package config
