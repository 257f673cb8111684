// internal/workers/matching/create-advisor-assignment/config.go
package createadvisorassignment

import (
	"time"

	"advisor-matching/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	cfg := &Config{Timeout: 30 * time.Second}
	if wc.Timeout > 0 {
		cfg.Timeout = time.Duration(wc.Timeout) * time.Millisecond
	}
	return cfg
}
