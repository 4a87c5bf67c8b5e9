// Package config provides configuration parsing for node-pulse.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file configuration.
const (
	EnvRPCEndpoint = "NODE_PULSE_RPC_ENDPOINT"
	EnvProcess     = "NODE_PULSE_PROCESS"
	EnvStoragePath = "NODE_PULSE_STORAGE_PATH"
	EnvConfigPath  = "NODE_PULSE_CONFIG"
)

// Display modes.
const (
	ModeTUI   = "tui"
	ModePlain = "plain"
)

// Config represents the node-pulse configuration.
type Config struct {
	// Node identifies the node being watched.
	Node NodeConfig `yaml:"node"`

	// Sampling controls the tick loop cadence and window size.
	Sampling SamplingConfig `yaml:"sampling"`

	// RPC holds JSON-RPC query settings.
	RPC RPCConfig `yaml:"rpc"`

	// Storage holds storage directory measurement settings.
	Storage StorageConfig `yaml:"storage"`

	// Display holds rendering settings.
	Display DisplayConfig `yaml:"display"`

	// Log holds log file settings.
	Log LogConfig `yaml:"log"`
}

// NodeConfig identifies the node.
type NodeConfig struct {
	// ProcessName is the exact OS process name of the node.
	ProcessName string `yaml:"process_name"`
	// RPCEndpoint is the node's JSON-RPC URL (http, https, ws or wss).
	RPCEndpoint string `yaml:"rpc_endpoint"`
	// StoragePath is the node's data directory.
	StoragePath string `yaml:"storage_path"`
}

// SamplingConfig controls the tick loop.
type SamplingConfig struct {
	// WindowSize is the number of samples kept per series.
	WindowSize int `yaml:"window_size"`
	// TickInterval is a duration string between tick starts (e.g. "1s").
	TickInterval string `yaml:"tick_interval"`
	// InputPoll is a duration string bounding each quit-input poll.
	InputPoll string `yaml:"input_poll"`
	// RPCTimeout is a duration string bounding each RPC call.
	RPCTimeout string `yaml:"rpc_timeout"`
}

// RPCConfig holds query toggles.
type RPCConfig struct {
	// QueryBlockNumber enables the starknet_blockNumber call each tick.
	QueryBlockNumber bool `yaml:"query_block_number"`
}

// StorageConfig holds storage measurement settings.
type StorageConfig struct {
	// RefreshInterval is a duration string between directory walks.
	RefreshInterval string `yaml:"refresh_interval"`
	// CacheDir holds the persisted last-known storage size.
	CacheDir string `yaml:"cache_dir"`
	// CacheTTL is a duration string; older persisted sizes are ignored.
	CacheTTL string `yaml:"cache_ttl"`
}

// DisplayConfig holds rendering settings.
type DisplayConfig struct {
	// SmoothingSpan is the moving average window for the charts.
	SmoothingSpan int `yaml:"smoothing_span"`
	// Mode is "tui" or "plain".
	Mode string `yaml:"mode"`
}

// LogConfig holds log output settings.
type LogConfig struct {
	// File is the log file path.
	File string `yaml:"file"`
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Node: NodeConfig{
			ProcessName: "deoxys",
			RPCEndpoint: "http://localhost:9944",
			StoragePath: filepath.Join(home, ".deoxys"),
		},
		Sampling: SamplingConfig{
			WindowSize:   100,
			TickInterval: "1s",
			InputPoll:    "50ms",
			RPCTimeout:   "3s",
		},
		RPC: RPCConfig{
			QueryBlockNumber: true,
		},
		Storage: StorageConfig{
			RefreshInterval: "10s",
			CacheDir:        filepath.Join(home, ".cache", "node-pulse"),
			CacheTTL:        "10m",
		},
		Display: DisplayConfig{
			SmoothingSpan: 7,
			Mode:          ModeTUI,
		},
		Log: LogConfig{
			File:  filepath.Join(home, ".local", "state", "node-pulse", "node-pulse.log"),
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "node-pulse", "config.yaml")
}

// LoadConfig reads a YAML config file over the defaults. A missing file or
// empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	config.Node.StoragePath = expandHome(config.Node.StoragePath)
	config.Storage.CacheDir = expandHome(config.Storage.CacheDir)
	config.Log.File = expandHome(config.Log.File)
	return config, nil
}

// LoadEnvFiles loads KEY=VALUE pairs from the given .env files into the
// process environment without overriding variables that are already set.
// Missing files are ignored.
func LoadEnvFiles(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("config: load env: %w", err)
	}
	return nil
}

// ApplyEnv overrides node settings from NODE_PULSE_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvRPCEndpoint)); v != "" {
		c.Node.RPCEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvProcess)); v != "" {
		c.Node.ProcessName = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoragePath)); v != "" {
		c.Node.StoragePath = expandHome(v)
	}
}

// Validate checks the configuration for required fields and logical consistency.
func (c *Config) Validate() error {
	if c.Node.ProcessName == "" {
		return fmt.Errorf("node.process_name is required")
	}
	if c.Node.RPCEndpoint == "" {
		return fmt.Errorf("node.rpc_endpoint is required")
	}
	if c.Node.StoragePath == "" {
		return fmt.Errorf("node.storage_path is required")
	}

	if c.Sampling.WindowSize < 1 {
		return fmt.Errorf("sampling.window_size must be positive, got %d", c.Sampling.WindowSize)
	}
	durations := []struct {
		field string
		value string
	}{
		{"sampling.tick_interval", c.Sampling.TickInterval},
		{"sampling.input_poll", c.Sampling.InputPoll},
		{"sampling.rpc_timeout", c.Sampling.RPCTimeout},
		{"storage.refresh_interval", c.Storage.RefreshInterval},
		{"storage.cache_ttl", c.Storage.CacheTTL},
	}
	for _, d := range durations {
		if _, err := parseDuration(d.value); err != nil {
			return fmt.Errorf("%s: %w", d.field, err)
		}
	}

	if c.Storage.CacheDir == "" {
		return fmt.Errorf("storage.cache_dir is required")
	}

	if c.Display.SmoothingSpan < 1 {
		return fmt.Errorf("display.smoothing_span must be positive, got %d", c.Display.SmoothingSpan)
	}
	if c.Display.Mode != ModeTUI && c.Display.Mode != ModePlain {
		return fmt.Errorf("display.mode must be 'tui' or 'plain', got %q", c.Display.Mode)
	}

	if c.Log.File == "" {
		return fmt.Errorf("log.file is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}

// TickInterval returns the parsed sampling.tick_interval.
func (c *Config) TickInterval() time.Duration { return mustDuration(c.Sampling.TickInterval) }

// InputPoll returns the parsed sampling.input_poll.
func (c *Config) InputPoll() time.Duration { return mustDuration(c.Sampling.InputPoll) }

// RPCTimeout returns the parsed sampling.rpc_timeout.
func (c *Config) RPCTimeout() time.Duration { return mustDuration(c.Sampling.RPCTimeout) }

// RefreshInterval returns the parsed storage.refresh_interval.
func (c *Config) RefreshInterval() time.Duration { return mustDuration(c.Storage.RefreshInterval) }

// CacheTTL returns the parsed storage.cache_ttl.
func (c *Config) CacheTTL() time.Duration { return mustDuration(c.Storage.CacheTTL) }

// parseDuration accepts Go duration strings and bare integers as seconds.
// Values must be positive.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration is required")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("duration must be positive, got %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}

// mustDuration returns 0 for values Validate would reject; callers treat 0
// as "use the package default".
func mustDuration(s string) time.Duration {
	d, err := parseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// SaveConfig writes a config to the given path as YAML.
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
