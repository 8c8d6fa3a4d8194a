// internal/workers/advisors/reassign-lead/config.go
package reassignlead

import (
	"time"

	"dealership-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(appCfg *config.Config) *Config {
	wc := config.GetWorkerConfig(appCfg, TaskType)
	return &Config{Timeout: config.GetDuration(wc.Timeout)}
}
