// internal/workers/application/create-draft/config.go
package createdraft

import (
	"time"

	"adoption-review/internal/common/camunda"
	"adoption-review/internal/common/config"
	"adoption-review/pkg/registry"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig takes the job timeout from the worker settings and falls back to
// the registered activity timeout.
func LoadConfig(wc config.WorkerConfig) *Config {
	if wc.Timeout > 0 {
		return &Config{Timeout: config.GetDuration(wc.Timeout)}
	}
	return &Config{Timeout: registry.Timeout(TaskType, camunda.DefaultJobTimeout)}
}
