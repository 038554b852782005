package config

import "time"

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// SettleDuration is the pause between the two stability size samples.
func (e Engine) SettleDuration() time.Duration { return seconds(e.SettleInterval) }

// BackoffBaseDuration is the first retry delay.
func (e Engine) BackoffBaseDuration() time.Duration { return seconds(e.RetryBackoffBase) }

// BackoffCapDuration bounds the exponential retry delay.
func (e Engine) BackoffCapDuration() time.Duration { return seconds(e.RetryBackoffCap) }

// NetworkTimeoutDuration bounds one move attempt against a network destination.
func (e Engine) NetworkTimeoutDuration() time.Duration { return seconds(e.NetworkTimeout) }

// WatchRetryBaseDuration is the first re-establish delay for a degraded watch.
func (e Engine) WatchRetryBaseDuration() time.Duration { return seconds(e.WatchRetryBase) }

// WatchRetryCapDuration bounds the degraded-watch re-establish delay.
func (e Engine) WatchRetryCapDuration() time.Duration { return seconds(e.WatchRetryCap) }

// SampleIntervalDuration is the pause between health samples.
func (h Health) SampleIntervalDuration() time.Duration { return seconds(h.SampleInterval) }

// Retention is how long audit entries are kept.
func (l Logging) Retention() time.Duration { return time.Duration(l.RetentionDays) * 24 * time.Hour }
