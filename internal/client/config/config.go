package config

import "time"

// Config holds runtime settings for the LinkVault CLI.
//
// Fields:
//   - ServerURL: base URL of the backend HTTP API.
//   - DataDir: directory for the local manifest cache (empty means the
//     default under the user home directory).
//   - RequestTimeout: per-request deadline for vault API calls.
type Config struct {
	ServerURL      string
	DataDir        string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DataDir = ""
	c.RequestTimeout = 10 * time.Second
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
