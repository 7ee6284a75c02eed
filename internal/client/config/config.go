package config

import "time"

// Config holds runtime settings for the guest-desk agent.
//
// Fields:
//   - APIBaseURL: base http(s) URL of the backend REST API; the sync channel
//     URL is derived from it.
//   - ReconnectDelay: fixed pause between sync channel reconnect attempts.
//   - ReadyTimeout: how long startup waits for the first channel snapshot
//     before proceeding with REST data only.
//   - LocalDBPath: sqlite file holding the persisted session credentials.
//   - MetricsAddr: listen address for the Prometheus endpoint; empty disables
//     the listener.
type Config struct {
	APIBaseURL     string
	ReconnectDelay time.Duration
	ReadyTimeout   time.Duration
	LocalDBPath    string
	MetricsAddr    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.ReconnectDelay = 1500 * time.Millisecond
	c.ReadyTimeout = 3 * time.Second
	c.LocalDBPath = "guests.db"
	c.MetricsAddr = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
