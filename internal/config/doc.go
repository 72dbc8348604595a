// Package config handles configuration loading for gatewatch.
//
// # Configuration File
//
// Configuration is YAML with ${VAR_NAME} environment variable expansion
// and sensible defaults for every field:
//
//	server:
//	  http_addr: ":5053"
//	database:
//	  path: "gatewatch.db"
//	sequence:
//	  red_card_after: "20s"   # two-door completion window
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Duration values use Go's time.ParseDuration syntax. Load() validates the
// result and fails fast on bad values.
package config
