package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "age": {"type": "integer", "minimum": 0}
  }
}`

func TestCompileAndSemanticClean(t *testing.T) {
	sch, err := Compile("person.json", personSchema)
	require.NoError(t, err)

	findings := Semantic(sch, map[string]any{"name": "alice", "age": float64(30)})
	assert.Empty(t, findings)
}

func TestSemanticFlattensLeafCauses(t *testing.T) {
	sch, err := Compile("person.json", personSchema)
	require.NoError(t, err)

	findings := Semantic(sch, map[string]any{"name": "", "age": float64(-1)})
	require.NotEmpty(t, findings)
	for _, f := range findings {
		assert.Equal(t, PhaseSemantic, f.Phase)
		assert.Equal(t, SeverityError, f.Severity)
		assert.NotEmpty(t, f.Message)
	}

	paths := make([]string, 0, len(findings))
	for _, f := range findings {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "/name")
	assert.Contains(t, paths, "/age")
}

func TestCompileRejectsBadSchema(t *testing.T) {
	_, err := Compile("bad.json", `{"type": 42}`)
	assert.Error(t, err)
}

func TestFindingError(t *testing.T) {
	f := &Finding{Phase: PhaseDomain, Path: "test_steps/0/action", Message: "unknown action", Severity: SeverityError}
	assert.Equal(t, "[domain] test_steps/0/action: unknown action", f.Error())
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]*Finding{{Severity: SeverityWarning}}))
	assert.True(t, HasErrors([]*Finding{{Severity: SeverityWarning}, {Severity: SeverityError}}))
}
