package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlanDefaultsMissingKeys(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			name:     "only targets",
			response: `{"targets": [{"file": "a.py", "reason": "needs logging"}]}`,
		},
		{
			name: "targets wrapped in fences",
			response: "```json\n" +
				`{"targets": [{"file": "a.py", "reason": "needs logging"}]}` +
				"\n```",
		},
		{
			name: "null values for absent keys",
			response: `{"targets": [{"file": "a.py", "reason": "r"}], "actions": null,
				"package_installs": null, "websearch_queries": null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan(tt.response)
			require.NoError(t, err)

			require.Len(t, plan.Targets, 1)
			assert.Equal(t, "a.py", plan.Targets[0].File)
			assert.NotNil(t, plan.Actions)
			assert.Empty(t, plan.Actions)
			assert.NotNil(t, plan.PackageInstalls)
			assert.Empty(t, plan.PackageInstalls)
			assert.NotNil(t, plan.WebSearchQueries)
			assert.Empty(t, plan.WebSearchQueries)
			assert.False(t, plan.RunTests)
			assert.Equal(t, "", plan.TestCommand)
		})
	}
}

func TestParsePlanFullSchema(t *testing.T) {
	response := `{
		"targets": [{"file": "auth.py", "reason": "add logger"}],
		"actions": [{"type": "code_edit", "description": "add logging", "files": ["auth.py"]}],
		"package_installs": ["pip:structlog"],
		"websearch_queries": ["python structlog usage"],
		"run_tests": true,
		"test_command": "pytest tests/"
	}`

	plan, err := ParsePlan(response)
	require.NoError(t, err)

	assert.Equal(t, "auth.py", plan.Targets[0].File)
	assert.Equal(t, "code_edit", plan.Actions[0].Type)
	assert.Equal(t, []string{"pip:structlog"}, plan.PackageInstalls)
	assert.True(t, plan.RunTests)
	assert.Equal(t, "pytest tests/", plan.TestCommand)
}

func TestParsePlanInvalidJSON(t *testing.T) {
	plan, err := ParsePlan("I think you should edit auth.py")
	require.Error(t, err)
	assert.True(t, plan.IsEmpty())
	assert.NotNil(t, plan.Targets)
}

func TestEmptyPlanIsEmpty(t *testing.T) {
	assert.True(t, EmptyPlan().IsEmpty())

	withTarget := EmptyPlan()
	withTarget.Targets = append(withTarget.Targets, Target{File: "a.py"})
	assert.False(t, withTarget.IsEmpty())
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"no fences", `{"a": 1}`, `{"a": 1}`},
		{"plain fences", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"language fences", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  ```\n{\"a\": 1}\n```  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.response))
		})
	}
}
