// internal/workers/advisors/update-advisor-availability/config.go
package updateadvisoravailability

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
