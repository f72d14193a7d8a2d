// Package config handles configuration loading for popcode-gateway.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. The format is chosen by file extension: ".toml" is TOML,
// anything else is YAML.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from POPCODE_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/popcode/gateway.yaml
//  3. ~/.config/popcode/gateway.yaml
//
// # Environment Variable Expansion
//
//	auth:
//	  jwt_secret: "${POPCODE_JWT_SECRET}"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  base_url: "https://popcode.example.org"
//
//	database:
//	  path: "/var/lib/popcode/gateway.db"
//
//	auth:
//	  jwt_secret: "${POPCODE_JWT_SECRET}"   # at least 32 bytes
//	  session_ttl: "720h"
//	  github_client_id: "${GITHUB_CLIENT_ID}"
//	  github_client_secret: "${GITHUB_CLIENT_SECRET}"
//
//	github:
//	  api_url: "https://api.github.com"
//	  timeout: "30s"
//	  requests_per_second: 10
//	  burst: 10
//	  import_ref: ""                         # empty = default branch
//
//	retry:
//	  retries: 5
//	  factor: 2
//	  min_delay: "1s"
//	  max_delay: "10s"
//
//	import:
//	  gist_retries: 3
//	  repo_retries: 3
//
//	bootstrap:
//	  run_guard_ttl: "2m"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
package config
