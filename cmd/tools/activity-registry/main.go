// cmd/tools/activity-registry/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"adoption-review/internal/common/errors"
	"adoption-review/pkg/registry"
)

const defaultRegistryPath = "pkg/registry/activities.json"

var registryPath string

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	coverageCmd := flag.NewFlagSet("coverage", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{validateCmd, listCmd, updateCmd, coverageCmd} {
		fs.StringVar(&registryPath, "path", defaultRegistryPath, "Path to registry file")
	}

	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, timeout, retries)")
	value := updateCmd.String("value", "", "New value for the field")

	configPath := coverageCmd.String("config", "configs/config.yaml", "Worker configuration to compare against")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		err = validateRegistry()

	case "list":
		listCmd.Parse(os.Args[2:])
		err = listActivities()

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		err = updateActivity(*idUpdate, *field, *value)

	case "coverage":
		coverageCmd.Parse(os.Args[2:])
		err = checkCoverage(*configPath)

	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// validateRegistry checks structure, schemas and that every declared error
// code is one the adoption process can catch.
func validateRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	if err := reg.Validate(); err != nil {
		return err
	}

	known := make(map[string]bool, len(errors.BPMNErrorMapping))
	for _, code := range errors.BPMNErrorMapping {
		known[code] = true
	}
	for _, a := range reg.Activities {
		if a.DisplayName == "" || a.Category == "" {
			return fmt.Errorf("activity %s is missing displayName or category", a.ID)
		}
		if _, err := time.ParseDuration(a.Timeout); err != nil {
			return fmt.Errorf("activity %s has invalid timeout %q", a.ID, a.Timeout)
		}
		for _, code := range a.ErrorCodes {
			if !known[code] {
				return fmt.Errorf("activity %s declares unknown error code %s", a.ID, code)
			}
		}
	}

	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func listActivities() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	for _, a := range reg.Activities {
		fmt.Printf("%-32s %-12s %-10s %s\n", a.TaskType, a.Category, a.Timeout, a.ImplementationStatus)
	}
	return nil
}

func updateActivity(id, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var target *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			target = &reg.Activities[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		target.ImplementationStatus = value
	case "version":
		target.Version = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		target.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		target.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().Format("2006-01-02")
	if err := saveRegistry(reg, registryPath); err != nil {
		return err
	}
	fmt.Printf("Updated activity %s, field %s to %s\n", id, field, value)
	return nil
}

// checkCoverage reports configured workers without an activity and
// activities that no worker serves.
func checkCoverage(path string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	// Only the worker map is read, so connection settings need not be set.
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	workers := v.GetStringMap("workers")

	var problems []string
	for taskType := range workers {
		if _, ok := reg.Find(taskType); !ok {
			problems = append(problems, fmt.Sprintf("worker %s has no registered activity", taskType))
		}
	}
	for _, a := range reg.Activities {
		if _, ok := workers[a.TaskType]; !ok {
			problems = append(problems, fmt.Sprintf("activity %s has no configured worker", a.TaskType))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		for _, p := range problems {
			fmt.Println(p)
		}
		return fmt.Errorf("%d coverage problems", len(problems))
	}
	fmt.Printf("All %d activities have a configured worker.\n", len(reg.Activities))
	return nil
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: activity-registry <command> [flags]

Commands:
  validate  Validate the registry file
  list      List registered activities
  update    Update an existing activity's field
  coverage  Compare the registry with the configured workers
  help      Show this help message

Examples:
  activity-registry validate -path pkg/registry/activities.json
  activity-registry update -id final-decision -field timeout -value 20s
  activity-registry coverage -config configs/config.yaml

Use 'activity-registry <command> -h' for more information about a command.
`)
}
