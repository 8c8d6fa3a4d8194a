// internal/workers/message-analysis/classify-intent/config.go
package classifyintent

import (
	"time"

	"dealership-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	Archive bool
}

func LoadConfig(appCfg *config.Config) *Config {
	wc := config.GetWorkerConfig(appCfg, TaskType)
	return &Config{
		Timeout: config.GetDuration(wc.Timeout),
		Archive: appCfg.Archive.Enabled,
	}
}
