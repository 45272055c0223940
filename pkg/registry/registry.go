// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"adoption-review/internal/common/validation"
)

//go:embed activities.json
var embedded []byte

var (
	defaultOnce sync.Once
	defaultReg  *ActivityRegistry
	defaultErr  error
)

// LoadRegistry reads a registry file.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a registry document.
func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}
	return &reg, nil
}

// Default returns the registry compiled into the binary.
func Default() (*ActivityRegistry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Parse(embedded)
	})
	return defaultReg, defaultErr
}

// Find returns the activity serving taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TimeoutDuration parses Timeout, falling back to def when unset or invalid.
func (a *Activity) TimeoutDuration(def time.Duration) time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// CompileInput compiles the activity's input schema.
func (a *Activity) CompileInput() (*validation.Schema, error) {
	return validation.Compile(a.TaskType, a.InputSchema)
}

// Validate checks that task types are unique and every input schema compiles.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Activities))
	for i := range r.Activities {
		a := &r.Activities[i]
		if a.TaskType == "" {
			return fmt.Errorf("activity %q has no task type", a.ID)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("duplicate task type %q", a.TaskType)
		}
		seen[a.TaskType] = true
		if _, err := a.CompileInput(); err != nil {
			return fmt.Errorf("activity %q: %w", a.ID, err)
		}
	}
	return nil
}

// MustInputSchema compiles the input schema of taskType from the embedded
// registry. It panics when the task type is unknown or the schema is broken;
// workers call it at package init.
func MustInputSchema(taskType string) *validation.Schema {
	reg, err := Default()
	if err != nil {
		panic(err)
	}
	a, ok := reg.Find(taskType)
	if !ok {
		panic(fmt.Sprintf("registry: unknown task type %q", taskType))
	}
	s, err := a.CompileInput()
	if err != nil {
		panic(fmt.Sprintf("registry: %s: %v", taskType, err))
	}
	return s
}

// Timeout returns the registered timeout of taskType, or def.
func Timeout(taskType string, def time.Duration) time.Duration {
	reg, err := Default()
	if err != nil {
		return def
	}
	a, ok := reg.Find(taskType)
	if !ok {
		return def
	}
	return a.TimeoutDuration(def)
}
