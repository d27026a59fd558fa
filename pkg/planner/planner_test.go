package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/utils"
	"github.com/alantheprice/codeagent/pkg/websearch"
	"github.com/alantheprice/codeagent/pkg/workspace"
)

// fakeGenerator returns a canned response and records the last prompt.
type fakeGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error) {
	f.lastPrompt = prompt
	return f.response, f.err
}

func plannerForTest(t *testing.T, gen *fakeGenerator) *Planner {
	t.Helper()
	cfg := &config.Config{
		PlannerModel:       "test-model",
		PlannerTimeoutSecs: 5,
		MaxContextTokens:   32000,
	}
	cfg.Temperature.Planner = 0.3
	logger := utils.NewLogger(t.TempDir(), true)
	t.Cleanup(func() { logger.Close() })
	return NewPlanner(cfg, gen, logger)
}

func candidates() []workspace.ScoredFile {
	return []workspace.ScoredFile{
		{FileRecord: workspace.FileRecord{Path: "auth.py", Extension: ".py", Lines: 42}, Score: 17},
	}
}

func TestCreateParsesPlan(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n" +
		`{"targets": [{"file": "auth.py", "reason": "add logging"}]}` + "\n```"}

	plan := plannerForTest(t, gen).Create(context.Background(), "add logging to auth module", candidates(), nil)

	assert.Len(t, plan.Targets, 1)
	assert.Equal(t, "auth.py", plan.Targets[0].File)
	assert.Contains(t, gen.lastPrompt, "add logging to auth module")
	assert.Contains(t, gen.lastPrompt, "auth.py (42 lines, .py)")
}

func TestCreateTransportFailureYieldsEmptyPlan(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}

	plan := plannerForTest(t, gen).Create(context.Background(), "do things", candidates(), nil)

	assert.True(t, plan.IsEmpty())
	assert.NotNil(t, plan.Targets)
}

func TestCreateUnparseableResponseYieldsEmptyPlan(t *testing.T) {
	gen := &fakeGenerator{response: "Sure! First you should open the file..."}

	plan := plannerForTest(t, gen).Create(context.Background(), "do things", candidates(), nil)

	assert.True(t, plan.IsEmpty())
}

func TestCreateIncludesSearchContext(t *testing.T) {
	gen := &fakeGenerator{response: `{}`}
	results := []websearch.Result{{Title: "structlog docs", Snippet: "how to configure"}}

	plannerForTest(t, gen).Create(context.Background(), "add logging", candidates(), results)

	assert.Contains(t, gen.lastPrompt, "Web Search Results")
	assert.Contains(t, gen.lastPrompt, "structlog docs")
}

func TestCreateCapsCandidateListByTokenBudget(t *testing.T) {
	var files []workspace.ScoredFile
	for i := 0; i < 10; i++ {
		files = append(files, workspace.ScoredFile{
			FileRecord: workspace.FileRecord{
				Path:      fmt.Sprintf("pkg/file_%03d.py", i),
				Extension: ".py",
				Lines:     10,
			},
			Score: float64(100 - i),
		})
	}

	gen := &fakeGenerator{response: `{}`}
	p := plannerForTest(t, gen)

	// Budget with room for the template, instruction and exactly one
	// candidate line.
	instruction := "add logging"
	line := fmt.Sprintf("- %s (%d lines, %s)\n", files[0].Path, files[0].Lines, files[0].Extension)
	p.cfg.MaxContextTokens = utils.EstimateTokens(planPromptTemplate) +
		utils.EstimateTokens(instruction) +
		utils.EstimateTokens(line)

	p.Create(context.Background(), instruction, files, nil)

	assert.Contains(t, gen.lastPrompt, "file_000.py")
	assert.NotContains(t, gen.lastPrompt, "file_001.py")

	// A generous budget keeps the whole candidate list.
	p.cfg.MaxContextTokens = 32000
	p.Create(context.Background(), instruction, files, nil)

	assert.Contains(t, gen.lastPrompt, "file_009.py")
}

func TestRefineFallsBackToOriginalOnFailure(t *testing.T) {
	original := EmptyPlan()
	original.Targets = append(original.Targets, Target{File: "auth.py", Reason: "r"})

	gen := &fakeGenerator{response: "not json at all"}
	refined := plannerForTest(t, gen).Refine(context.Background(), original, nil, "instruction")

	assert.Equal(t, original, refined)
}

func TestRefineUsesSearchResults(t *testing.T) {
	original := EmptyPlan()
	original.Targets = append(original.Targets, Target{File: "auth.py", Reason: "r"})

	gen := &fakeGenerator{response: `{"targets": [{"file": "auth.py", "reason": "r"}, {"file": "config.py", "reason": "new"}]}`}
	results := []websearch.Result{{Title: "docs", URL: "https://example.com", Snippet: "snippet"}}

	refined := plannerForTest(t, gen).Refine(context.Background(), original, results, "instruction")

	assert.Len(t, refined.Targets, 2)
	assert.True(t, strings.Contains(gen.lastPrompt, "example.com"))
}
