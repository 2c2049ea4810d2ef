// Package config loads application configuration.
//
// Configuration is resolved in three layers: built-in defaults, an
// optional YAML file pointed to by PROTOKOL_CONFIG_FILE, and finally
// PROTOKOL_* environment variables, which win over everything.
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// LoadConfig validates the result; a missing JWT secret or a malformed
// server section is a startup error, never a silent fallback.
package config
