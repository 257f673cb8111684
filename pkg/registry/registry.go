// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	TaskCalculateMatches  = "calculate-advisor-matches"
	TaskCreateAssignment  = "create-advisor-assignment"
	registryVersion       = "1.0.0"
	registryLastUpdatedAt = "2026-01-15"
)

// Builtin returns the activities the service implements.
func Builtin() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     registryVersion,
		LastUpdated: registryLastUpdatedAt,
		Activities: []Activity{
			{
				ID:          TaskCalculateMatches,
				DisplayName: "Calculate Advisor Matches",
				Description: "Scores founders against advisors for one pair, one founder, or the full batch",
				Category:    "matching",
				Version:     "1.0.0",
				TaskType:    TaskCalculateMatches,
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"founderId": map[string]interface{}{"type": "string", "minLength": 1},
						"advisorId": map[string]interface{}{"type": "string", "minLength": 1},
						"batchMode": map[string]interface{}{"type": "boolean"},
					},
				},
				ErrorCodes: []string{
					"MISSING_IDENTIFIERS", "NO_ELIGIBLE_FOUNDERS", "NO_ELIGIBLE_ADVISORS",
					"PROFILE_NOT_FOUND", "PROFILE_QUERY_FAILED", "MATCH_UPSERT_FAILED", "SCORING_FAILED",
					"BATCH_IN_PROGRESS",
				},
				Timeout: "30m",
				Retries: 3,
				Tags:    []string{"matching", "batch"},
			},
			{
				ID:          TaskCreateAssignment,
				DisplayName: "Create Advisor Assignment",
				Description: "Creates an active advisor assignment from a match or a manual choice",
				Category:    "matching",
				Version:     "1.0.0",
				TaskType:    TaskCreateAssignment,
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"founderId", "advisorId", "assignedBy"},
					"properties": map[string]interface{}{
						"founderId":  map[string]interface{}{"type": "string", "minLength": 1},
						"advisorId":  map[string]interface{}{"type": "string", "minLength": 1},
						"assignedBy": map[string]interface{}{"type": "string", "minLength": 1},
						"manual":     map[string]interface{}{"type": "boolean"},
					},
				},
				ErrorCodes: []string{"INVALID_REQUEST", "DUPLICATE_ASSIGNMENT", "ASSIGNMENT_INSERT_FAILED", "PROFILE_NOT_FOUND"},
				Timeout:    "30s",
				Retries:    3,
				Tags:       []string{"matching", "assignment"},
			},
		},
	}
}

// LoadRegistry reads a registry file.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Load returns the built-in registry with any activities from path replacing those with the
// same task type. An empty path returns the built-ins.
func Load(path string) (*ActivityRegistry, error) {
	reg := Builtin()
	if path == "" {
		return reg, nil
	}
	override, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	reg.Merge(override)
	return reg, nil
}

func (r *ActivityRegistry) Merge(other *ActivityRegistry) {
	for _, a := range other.Activities {
		if i := r.index(a.TaskType); i >= 0 {
			r.Activities[i] = a
			continue
		}
		r.Activities = append(r.Activities, a)
	}
	if other.Version != "" {
		r.Version = other.Version
	}
	if other.LastUpdated != "" {
		r.LastUpdated = other.LastUpdated
	}
}

func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	if i := r.index(taskType); i >= 0 {
		return r.Activities[i], true
	}
	return Activity{}, false
}

// InputSchema returns the input schema for taskType, or nil when it has none.
func (r *ActivityRegistry) InputSchema(taskType string) map[string]interface{} {
	a, ok := r.Find(taskType)
	if !ok {
		return nil
	}
	return a.InputSchema
}

func (r *ActivityRegistry) index(taskType string) int {
	for i, a := range r.Activities {
		if a.TaskType == taskType {
			return i
		}
	}
	return -1
}
