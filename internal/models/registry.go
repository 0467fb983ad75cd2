package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TaskInfo describes one cognitive task type in the battery.
type TaskInfo struct {
	Type            string `yaml:"type"`
	Label           string `yaml:"label"`
	MinimumViableMs int    `yaml:"minimum_viable_ms"`
	DurationMs      int    `yaml:"duration_ms"`
	DurationDisplay string `yaml:"duration_display"`
	Instructions    string `yaml:"instructions"`
}

// TaskRegistry is the set of registered task types, in battery order.
// It is loaded once at startup and passed to the services that need it;
// nothing mutates it afterwards.
type TaskRegistry struct {
	Tasks []TaskInfo `yaml:"tasks"`

	byType map[string]TaskInfo
}

// LoadTaskRegistry reads and parses the tasks.yaml file.
func LoadTaskRegistry(path string) (*TaskRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task registry file: %w", err)
	}

	var registry TaskRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task registry YAML: %w", err)
	}
	if len(registry.Tasks) == 0 {
		return nil, fmt.Errorf("task registry at %s defines no tasks", path)
	}

	registry.index()
	return &registry, nil
}

// NewTaskRegistry builds a registry from explicit entries. Used by tests
// to run the session engine against a fixture battery.
func NewTaskRegistry(tasks ...TaskInfo) *TaskRegistry {
	registry := &TaskRegistry{Tasks: tasks}
	registry.index()
	return registry
}

func (r *TaskRegistry) index() {
	r.byType = make(map[string]TaskInfo, len(r.Tasks))
	for _, t := range r.Tasks {
		r.byType[t.Type] = t
	}
}

// Get returns the entry for a task type.
func (r *TaskRegistry) Get(taskType string) (TaskInfo, bool) {
	info, ok := r.byType[taskType]
	return info, ok
}

// Contains reports whether the task type is registered.
func (r *TaskRegistry) Contains(taskType string) bool {
	_, ok := r.byType[taskType]
	return ok
}

// Types returns all registered task types in battery order.
func (r *TaskRegistry) Types() []string {
	types := make([]string, len(r.Tasks))
	for i, t := range r.Tasks {
		types[i] = t.Type
	}
	return types
}
