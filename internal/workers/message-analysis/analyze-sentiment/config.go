// internal/workers/message-analysis/analyze-sentiment/config.go
package analyzesentiment

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
