package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for daemon runtime state.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Watch describes one watched folder. The raw path may contain placeholder
// tokens such as %USERNAME% and may use Windows, UNC, or Unix syntax.
type Watch struct {
	ID        string `toml:"id"`
	Path      string `toml:"path"`
	Recursive bool   `toml:"recursive"`
	Enabled   bool   `toml:"enabled"`
}

// Route maps a set of file extensions to a category and destination template.
type Route struct {
	Extensions  []string `toml:"extensions"`
	Category    string   `toml:"category"`
	Destination string   `toml:"destination"`
}

// Routing contains route-wide settings beyond the per-route entries.
type Routing struct {
	DefaultCategory    string `toml:"default_category"`
	DefaultDestination string `toml:"default_destination"`
}

// Duplicates controls how content duplicates are handled.
type Duplicates struct {
	Policy    string `toml:"policy"` // "move" or "skip"
	Subdir    string `toml:"subdir"`
	Rehydrate bool   `toml:"rehydrate"`
}

// Engine contains pipeline sizing and retry tuning.
type Engine struct {
	Workers           int `toml:"workers"`
	QueueSize         int `toml:"queue_size"`
	SettleInterval    int `toml:"settle_interval"`     // seconds between size samples
	StabilityAttempts int `toml:"stability_attempts"`  // pending polls before giving up
	MaxAttempts       int `toml:"max_attempts"`        // move attempts before terminal failure
	RetryBackoffBase  int `toml:"retry_backoff_base"`  // seconds
	RetryBackoffCap   int `toml:"retry_backoff_cap"`   // seconds
	NetworkTimeout    int `toml:"network_timeout"`     // seconds per network move attempt
	CollisionLimit    int `toml:"collision_limit"`     // collision probes before DestinationExhausted
	ThrottleFloor     int `toml:"throttle_floor"`      // active workers while throttled
	WatchRetryBase    int `toml:"watch_retry_base"`    // seconds, degraded watcher backoff base
	WatchRetryCap     int `toml:"watch_retry_cap"`     // seconds, degraded watcher backoff cap
}

// Health contains resource threshold configuration for the health gate.
type Health struct {
	Enabled           bool    `toml:"enabled"`
	SampleInterval    int     `toml:"sample_interval"` // seconds
	CPUThresholdPct   float64 `toml:"cpu_threshold_percent"`
	MemoryThresholdMB int     `toml:"memory_threshold_mb"`
}

// Target names a network destination with an opaque credential handle. The
// engine only uses targets to open a path for writing; credential material is
// resolved by the configuration collaborator and never stored here.
type Target struct {
	Name       string `toml:"name"`
	Path       string `toml:"path"`
	Credential string `toml:"credential"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for curator.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Watches    []Watch    `toml:"watch"`
	Routes     []Route    `toml:"route"`
	Routing    Routing    `toml:"routing"`
	Duplicates Duplicates `toml:"duplicates"`
	Engine     Engine     `toml:"engine"`
	Health     Health     `toml:"health"`
	Targets    []Target   `toml:"target"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/curator/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("curator.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates directories required for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EnabledWatches returns the watched folders the engine should monitor.
func (c *Config) EnabledWatches() []Watch {
	out := make([]Watch, 0, len(c.Watches))
	for _, w := range c.Watches {
		if w.Enabled {
			out = append(out, w)
		}
	}
	return out
}

// TargetByName looks up a configured network target.
func (c *Config) TargetByName(name string) (Target, bool) {
	for _, t := range c.Targets {
		if strings.EqualFold(strings.TrimSpace(t.Name), strings.TrimSpace(name)) {
			return t, true
		}
	}
	return Target{}, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
