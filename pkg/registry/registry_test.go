package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	require.NoError(t, reg.Validate())
	assert.Len(t, reg.Activities, 9)

	for _, a := range reg.Activities {
		assert.NotEmpty(t, a.ErrorCodes, a.TaskType)
		assert.Contains(t, a.Workflows, "adoption-application-review")
	}
}

func TestFind(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	a, ok := reg.Find("adoption-final-decision")
	require.True(t, ok)
	assert.Equal(t, "final-decision", a.ID)
	assert.Equal(t, 15*time.Second, a.TimeoutDuration(time.Minute))

	_, ok = reg.Find("adoption-unknown-task")
	assert.False(t, ok)
}

func TestTimeout(t *testing.T) {
	assert.Equal(t, 60*time.Second, Timeout("adoption-upload-document", time.Second))
	assert.Equal(t, time.Second, Timeout("unknown", time.Second))
}

func TestMustInputSchema(t *testing.T) {
	s := MustInputSchema("adoption-final-decision")
	assert.True(t, s.Validate(map[string]interface{}{
		"applicationId": 1, "shelterId": 3, "decision": "approved",
	}).Valid)
	assert.False(t, s.Validate(map[string]interface{}{
		"applicationId": 1, "shelterId": 3, "decision": "maybe",
	}).Valid)

	assert.Panics(t, func() { MustInputSchema("unknown") })
}

func TestValidate_RejectsDuplicates(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{ID: "a", TaskType: "adoption-x", InputSchema: map[string]interface{}{"type": "object"}},
		{ID: "b", TaskType: "adoption-x", InputSchema: map[string]interface{}{"type": "object"}},
	}}
	assert.Error(t, reg.Validate())

	reg.Activities[1].TaskType = ""
	assert.Error(t, reg.Validate())
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	require.NoError(t, os.WriteFile(path, embedded, 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", reg.Version)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Parse([]byte("{"))
	assert.Error(t, err)
}
