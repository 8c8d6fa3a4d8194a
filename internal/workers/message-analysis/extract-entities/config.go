// internal/workers/message-analysis/extract-entities/config.go
package extractentities

import (
	"time"

	"dealership-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// Archive stores every extraction in the message-analysis index.
	Archive bool
}

func LoadConfig(appCfg *config.Config) *Config {
	wc := config.GetWorkerConfig(appCfg, TaskType)
	return &Config{
		Timeout: config.GetDuration(wc.Timeout),
		Archive: appCfg.Archive.Enabled,
	}
}
