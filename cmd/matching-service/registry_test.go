// cmd/matching-service/registry_test.go
package main

import (
	"testing"

	"advisor-matching/pkg/registry"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegistry_Builtin(t *testing.T) {
	assert.Empty(t, validateRegistry(registry.Builtin()))
}

func TestValidateRegistry_Problems(t *testing.T) {
	reg := &registry.ActivityRegistry{
		Activities: []registry.Activity{
			{TaskType: "Calculate_Matches", Timeout: "soon"},
			{TaskType: "notify-founder", ErrorCodes: []string{"MAILBOX_FULL"}},
			{TaskType: "notify-founder", InputSchema: map[string]interface{}{"type": 42}},
		},
	}

	problems := validateRegistry(reg)

	assert.Len(t, problems, 5)
	assert.Contains(t, problems, `Calculate_Matches: timeout "soon" is not a duration`)
	assert.Contains(t, problems, "notify-founder: unknown error code MAILBOX_FULL")
	assert.Contains(t, problems, "notify-founder: duplicate task type")
}
