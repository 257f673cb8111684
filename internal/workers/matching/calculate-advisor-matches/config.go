// internal/workers/matching/calculate-advisor-matches/config.go
package calculateadvisormatches

import (
	"time"

	"advisor-matching/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig reads the worker's timeout; batch jobs get a long default because a full run
// scores every founder.
func LoadConfig(wc config.WorkerConfig) *Config {
	cfg := &Config{Timeout: 30 * time.Minute}
	if wc.Timeout > 0 {
		cfg.Timeout = time.Duration(wc.Timeout) * time.Millisecond
	}
	return cfg
}
