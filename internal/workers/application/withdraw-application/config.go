// internal/workers/application/withdraw-application/config.go
package withdrawapplication

import (
	"time"

	"adoption-review/internal/common/camunda"
	"adoption-review/internal/common/config"
	"adoption-review/pkg/registry"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	if wc.Timeout > 0 {
		return &Config{Timeout: config.GetDuration(wc.Timeout)}
	}
	return &Config{Timeout: registry.Timeout(TaskType, camunda.DefaultJobTimeout)}
}
