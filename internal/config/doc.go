// Package config handles configuration loading for the valet client.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Configuration Sections
//
// Backend connection:
//
//	backend:
//	  base_url: "http://localhost:8000"
//	  timeout: "60s"
//
// Session token:
//
//	session:
//	  token_path: "${HOME}/.config/valet/token"
//
// Catalog cache:
//
//	catalog:
//	  enabled: true
//	  path: "${HOME}/.local/share/valet/catalog.db"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables with the
// ${VAR_NAME} syntax; unset variables expand to the empty string.
package config
