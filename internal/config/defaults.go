package config

const (
	defaultStateDir          = "~/.local/share/curator"
	defaultLogDir            = "~/.local/share/curator/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultDefaultCategory   = "Other"
	defaultDuplicatesPolicy  = "move"
	defaultDuplicatesSubdir  = "Duplicates"
	defaultWorkers           = 4
	defaultQueueSize         = 256
	defaultSettleInterval    = 1
	defaultStabilityAttempts = 10
	defaultMaxAttempts       = 5
	defaultRetryBackoffBase  = 2
	defaultRetryBackoffCap   = 120
	defaultNetworkTimeout    = 15
	defaultCollisionLimit    = 1000
	defaultThrottleFloor     = 1
	defaultWatchRetryBase    = 5
	defaultWatchRetryCap     = 300
	defaultHealthInterval    = 10
	defaultCPUThresholdPct   = 85.0
	defaultMemoryThresholdMB = 1024
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Routing: Routing{
			DefaultCategory: defaultDefaultCategory,
		},
		Duplicates: Duplicates{
			Policy: defaultDuplicatesPolicy,
			Subdir: defaultDuplicatesSubdir,
		},
		Engine: Engine{
			Workers:           defaultWorkers,
			QueueSize:         defaultQueueSize,
			SettleInterval:    defaultSettleInterval,
			StabilityAttempts: defaultStabilityAttempts,
			MaxAttempts:       defaultMaxAttempts,
			RetryBackoffBase:  defaultRetryBackoffBase,
			RetryBackoffCap:   defaultRetryBackoffCap,
			NetworkTimeout:    defaultNetworkTimeout,
			CollisionLimit:    defaultCollisionLimit,
			ThrottleFloor:     defaultThrottleFloor,
			WatchRetryBase:    defaultWatchRetryBase,
			WatchRetryCap:     defaultWatchRetryCap,
		},
		Health: Health{
			Enabled:           true,
			SampleInterval:    defaultHealthInterval,
			CPUThresholdPct:   defaultCPUThresholdPct,
			MemoryThresholdMB: defaultMemoryThresholdMB,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
