// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	reg := Builtin()

	a, ok := reg.Find(TaskCalculateMatches)
	require.True(t, ok)
	assert.Equal(t, "matching", a.Category)
	assert.NotEmpty(t, reg.InputSchema(TaskCreateAssignment))

	_, ok = reg.Find("unknown-task")
	assert.False(t, ok)
	assert.Nil(t, reg.InputSchema("unknown-task"))
}

func TestLoad_OverridesByTaskType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "2.0.0",
		"activities": [
			{"id": "create-advisor-assignment", "taskType": "create-advisor-assignment", "timeout": "1m", "retries": 5},
			{"id": "notify-advisor", "taskType": "notify-advisor"}
		]
	}`), 0o600))

	reg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", reg.Version)
	assert.Len(t, reg.Activities, 3)

	a, ok := reg.Find(TaskCreateAssignment)
	require.True(t, ok)
	assert.Equal(t, 5, a.Retries)
	assert.Nil(t, a.InputSchema)

	_, ok = reg.Find("notify-advisor")
	assert.True(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0o600))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse registry")
}

func TestLoad_EmptyPathIsBuiltin(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Builtin(), reg)
}
