package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWatches()
	c.normalizeRoutes()
	c.normalizeDuplicates()
	c.normalizeEngine()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// normalizeWatches trims raw paths but leaves them otherwise untouched:
// placeholder tokens and UNC/Windows syntax are resolved by the path
// resolver at scan time, not at config load.
func (c *Config) normalizeWatches() {
	for i := range c.Watches {
		c.Watches[i].ID = strings.TrimSpace(c.Watches[i].ID)
		c.Watches[i].Path = strings.TrimSpace(c.Watches[i].Path)
		if c.Watches[i].ID == "" {
			c.Watches[i].ID = fmt.Sprintf("watch-%d", i+1)
		}
	}
}

func (c *Config) normalizeRoutes() {
	for i := range c.Routes {
		route := &c.Routes[i]
		route.Category = strings.TrimSpace(route.Category)
		route.Destination = strings.TrimSpace(route.Destination)

		exts := make([]string, 0, len(route.Extensions))
		seen := make(map[string]struct{}, len(route.Extensions))
		for _, ext := range route.Extensions {
			normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if normalized == "" {
				continue
			}
			if _, ok := seen[normalized]; ok {
				continue
			}
			seen[normalized] = struct{}{}
			exts = append(exts, normalized)
		}
		route.Extensions = exts
	}
	c.Routing.DefaultCategory = strings.TrimSpace(c.Routing.DefaultCategory)
	c.Routing.DefaultDestination = strings.TrimSpace(c.Routing.DefaultDestination)
}

func (c *Config) normalizeDuplicates() {
	c.Duplicates.Policy = strings.ToLower(strings.TrimSpace(c.Duplicates.Policy))
	if c.Duplicates.Policy == "" {
		c.Duplicates.Policy = defaultDuplicatesPolicy
	}
	if strings.TrimSpace(c.Duplicates.Subdir) == "" {
		c.Duplicates.Subdir = defaultDuplicatesSubdir
	}
}

func (c *Config) normalizeEngine() {
	if c.Engine.Workers <= 0 {
		c.Engine.Workers = defaultWorkers
	}
	if c.Engine.QueueSize <= 0 {
		c.Engine.QueueSize = defaultQueueSize
	}
	if c.Engine.SettleInterval <= 0 {
		c.Engine.SettleInterval = defaultSettleInterval
	}
	if c.Engine.StabilityAttempts <= 0 {
		c.Engine.StabilityAttempts = defaultStabilityAttempts
	}
	if c.Engine.MaxAttempts <= 0 {
		c.Engine.MaxAttempts = defaultMaxAttempts
	}
	if c.Engine.RetryBackoffBase <= 0 {
		c.Engine.RetryBackoffBase = defaultRetryBackoffBase
	}
	if c.Engine.RetryBackoffCap <= 0 {
		c.Engine.RetryBackoffCap = defaultRetryBackoffCap
	}
	if c.Engine.NetworkTimeout <= 0 {
		c.Engine.NetworkTimeout = defaultNetworkTimeout
	}
	if c.Engine.CollisionLimit <= 0 {
		c.Engine.CollisionLimit = defaultCollisionLimit
	}
	if c.Engine.ThrottleFloor <= 0 {
		c.Engine.ThrottleFloor = defaultThrottleFloor
	}
	if c.Engine.WatchRetryBase <= 0 {
		c.Engine.WatchRetryBase = defaultWatchRetryBase
	}
	if c.Engine.WatchRetryCap <= 0 {
		c.Engine.WatchRetryCap = defaultWatchRetryCap
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
