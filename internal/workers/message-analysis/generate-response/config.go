// internal/workers/message-analysis/generate-response/config.go
package generateresponse

import (
	"time"

	"dealership-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// DefaultType applies when the job does not ask for a register.
	DefaultType string
}

func LoadConfig(appCfg *config.Config) *Config {
	wc := config.GetWorkerConfig(appCfg, TaskType)
	return &Config{
		Timeout:     config.GetDuration(wc.Timeout),
		DefaultType: appCfg.Responses.DefaultType,
	}
}
