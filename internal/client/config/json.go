package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/underflow1/ce-guests-front-sub000/internal/flagx"
	"github.com/underflow1/ce-guests-front-sub000/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	APIBaseURL     string         `json:"api_base_url"`
	ReconnectDelay timex.Duration `json:"reconnect_delay"`
	ReadyTimeout   timex.Duration `json:"ready_timeout"`
	LocalDBPath    string         `json:"local_db_path"`
	MetricsAddr    string         `json:"metrics_addr"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies known fields into the provided Config.
//   - Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
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

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.ReconnectDelay.Duration != 0 {
		cfg.ReconnectDelay = time.Duration(jc.ReconnectDelay.Duration)
	}
	if jc.ReadyTimeout.Duration != 0 {
		cfg.ReadyTimeout = time.Duration(jc.ReadyTimeout.Duration)
	}
	if jc.LocalDBPath != "" {
		cfg.LocalDBPath = jc.LocalDBPath
	}
	if jc.MetricsAddr != "" {
		cfg.MetricsAddr = jc.MetricsAddr
	}
}
