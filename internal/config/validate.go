package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWatches(); err != nil {
		return err
	}
	if err := c.validateRoutes(); err != nil {
		return err
	}
	if err := c.validateDuplicates(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateHealth(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWatches() error {
	seen := make(map[string]struct{}, len(c.Watches))
	for _, w := range c.Watches {
		if w.Path == "" {
			return fmt.Errorf("watch %q: path must be set", w.ID)
		}
		key := strings.ToLower(w.ID)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("watch id %q is not unique", w.ID)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// validateRoutes rejects structurally broken routes. Extensions claimed by
// more than one route are a configuration inconsistency the classifier
// tie-breaks at runtime, not a load failure.
func (c *Config) validateRoutes() error {
	for i, route := range c.Routes {
		if route.Category == "" {
			return fmt.Errorf("route %d: category must be set", i+1)
		}
		if route.Destination == "" {
			return fmt.Errorf("route %d (%s): destination must be set", i+1, route.Category)
		}
		if len(route.Extensions) == 0 {
			return fmt.Errorf("route %d (%s): extensions must include at least one entry", i+1, route.Category)
		}
	}
	return nil
}

func (c *Config) validateDuplicates() error {
	switch c.Duplicates.Policy {
	case "move", "skip":
		return nil
	default:
		return fmt.Errorf("duplicates.policy must be \"move\" or \"skip\", got %q", c.Duplicates.Policy)
	}
}

func (c *Config) validateEngine() error {
	if err := ensurePositiveMap(map[string]int{
		"engine.workers":            c.Engine.Workers,
		"engine.queue_size":         c.Engine.QueueSize,
		"engine.settle_interval":    c.Engine.SettleInterval,
		"engine.stability_attempts": c.Engine.StabilityAttempts,
		"engine.max_attempts":       c.Engine.MaxAttempts,
		"engine.retry_backoff_base": c.Engine.RetryBackoffBase,
		"engine.retry_backoff_cap":  c.Engine.RetryBackoffCap,
		"engine.network_timeout":    c.Engine.NetworkTimeout,
		"engine.collision_limit":    c.Engine.CollisionLimit,
		"engine.watch_retry_base":   c.Engine.WatchRetryBase,
		"engine.watch_retry_cap":    c.Engine.WatchRetryCap,
	}); err != nil {
		return err
	}
	if c.Engine.RetryBackoffCap < c.Engine.RetryBackoffBase {
		return errors.New("engine.retry_backoff_cap must be >= engine.retry_backoff_base")
	}
	if c.Engine.ThrottleFloor > c.Engine.Workers {
		return errors.New("engine.throttle_floor must not exceed engine.workers")
	}
	return nil
}

func (c *Config) validateHealth() error {
	if !c.Health.Enabled {
		return nil
	}
	if c.Health.SampleInterval <= 0 {
		return errors.New("health.sample_interval must be positive")
	}
	if c.Health.CPUThresholdPct <= 0 || c.Health.CPUThresholdPct > 100 {
		return errors.New("health.cpu_threshold_percent must be between 0 and 100")
	}
	if c.Health.MemoryThresholdMB <= 0 {
		return errors.New("health.memory_threshold_mb must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
