// Package config loads runtime configuration for the guest-desk agent.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend REST API
//	-r string   sync channel reconnect delay (e.g. "1500ms")
//	-t string   startup readiness timeout (e.g. "3s")
//	-d string   path to the local sqlite credentials database
//	-m string   Prometheus listen address (empty disables metrics)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8080",
//	  "reconnect_delay": "1500ms",
//	  "ready_timeout": "3s",
//	  "local_db_path": "guests.db",
//	  "metrics_addr": ":9090"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
