package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Target is a single file nominated by a plan for edits.
type Target struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Action describes one unit of work and the files it affects.
type Action struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Files       []string `json:"files"`
}

// Plan is the structured output of a planning round: which files to touch and
// what side effects (installs, searches, tests) to perform. A plan is
// immutable once executed within an iteration; each iteration produces a new
// one.
type Plan struct {
	Targets          []Target `json:"targets"`
	Actions          []Action `json:"actions"`
	PackageInstalls  []string `json:"package_installs"`
	WebSearchQueries []string `json:"websearch_queries"`
	RunTests         bool     `json:"run_tests"`
	TestCommand      string   `json:"test_command"`
}

// IsEmpty reports whether the plan contains no targets and no actions, the
// success-terminal condition for the iteration loop.
func (p Plan) IsEmpty() bool {
	return len(p.Targets) == 0 && len(p.Actions) == 0
}

// EmptyPlan returns the sentinel plan with every field present and empty.
// Planning failure is always recoverable at the iteration level, so parse and
// transport errors substitute this value instead of propagating.
func EmptyPlan() Plan {
	return Plan{
		Targets:          []Target{},
		Actions:          []Action{},
		PackageInstalls:  []string{},
		WebSearchQueries: []string{},
	}
}

// ParsePlan decodes a model response into a Plan. Surrounding fence markers
// are stripped first; missing keys default to empty/false. On any decode
// failure the empty plan is returned together with the reason.
func ParsePlan(response string) (Plan, error) {
	cleaned := StripFences(response)

	plan := EmptyPlan()
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return EmptyPlan(), fmt.Errorf("response is not a valid plan: %w", err)
	}

	// Keys decoded as JSON null must still be present as empty values.
	if plan.Targets == nil {
		plan.Targets = []Target{}
	}
	if plan.Actions == nil {
		plan.Actions = []Action{}
	}
	if plan.PackageInstalls == nil {
		plan.PackageInstalls = []string{}
	}
	if plan.WebSearchQueries == nil {
		plan.WebSearchQueries = []string{}
	}
	return plan, nil
}

// StripFences removes a surrounding markdown code fence from a model
// response, if present.
func StripFences(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	lines := strings.Split(response, "\n")
	if len(lines) < 2 {
		return response
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
