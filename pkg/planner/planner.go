package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/llm"
	"github.com/alantheprice/codeagent/pkg/utils"
	"github.com/alantheprice/codeagent/pkg/websearch"
	"github.com/alantheprice/codeagent/pkg/workspace"
)

// planPromptTemplate is the fixed scaffolding of the planning prompt; the
// instruction, candidate file list and search context fill the slots.
const planPromptTemplate = `You are an expert AI software architect and planner.

## User Instruction:
%s

## Available Project Files:
%s%s

## Your Task:
Analyze the instruction and create a detailed execution plan. Output ONLY valid JSON with this exact structure:

{
  "targets": [
    {"file": "path/to/file.py", "reason": "why this file needs changes"}
  ],
  "actions": [
    {
      "type": "code_edit",
      "description": "what changes to make",
      "files": ["file1.py", "file2.js"]
    }
  ],
  "package_installs": ["pip:package_name", "npm:package_name"],
  "websearch_queries": ["search query if more info needed"],
  "run_tests": true,
  "test_command": "pytest tests/"
}

## Rules:
1. Output ONLY valid JSON, no markdown, no explanation
2. Be specific about which files to modify
3. Include package installs if new dependencies are needed
4. Suggest web searches if you need more information
5. Set run_tests to true if changes should be tested
6. If no changes needed, return empty arrays

Generate the plan now:`

// Planner asks the model for a structured execution plan. Plans are requested
// at low temperature; they must be mechanically followable, so exploration is
// discouraged.
type Planner struct {
	cfg    *config.Config
	llm    llm.Generator
	logger *utils.Logger
}

func NewPlanner(cfg *config.Config, generator llm.Generator, logger *utils.Logger) *Planner {
	return &Planner{cfg: cfg, llm: generator, logger: logger}
}

// Create builds an execution plan for the instruction against the candidate
// files. Transport or parse failure yields the empty plan, never an error:
// planning failure is recoverable at the iteration level.
func (p *Planner) Create(ctx context.Context, instruction string, files []workspace.ScoredFile, searchResults []websearch.Result) Plan {
	p.logger.LogProcessStep("PLANNER: Creating execution plan")

	prompt := p.buildPrompt(instruction, files, searchResults)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.PlannerTimeoutSecs)*time.Second)
	defer cancel()

	response, err := p.llm.Generate(ctx, prompt, p.cfg.PlannerModel, p.cfg.Temperature.Planner, 4000)
	if err != nil {
		p.logger.LogError(fmt.Errorf("planning round produced no plan: %w", err))
		return EmptyPlan()
	}

	plan, err := ParsePlan(response)
	if err != nil {
		p.logger.LogError(fmt.Errorf("failed to parse plan: %w", err))
		return EmptyPlan()
	}

	p.logger.LogProcessStep(fmt.Sprintf("Plan created: %d targets, %d actions", len(plan.Targets), len(plan.Actions)))
	return plan
}

// Refine re-queries the model with the previous plan and fresh search
// results. On any failure the original plan is returned unchanged.
func (p *Planner) Refine(ctx context.Context, original Plan, searchResults []websearch.Result, instruction string) Plan {
	p.logger.LogProcessStep("PLANNER: Refining plan with search results")

	planJSON, err := json.MarshalIndent(original, "", "  ")
	if err != nil {
		return original
	}
	resultsJSON, err := json.MarshalIndent(searchResults, "", "  ")
	if err != nil {
		return original
	}

	prompt := fmt.Sprintf(`You previously created this plan:
%s

For the instruction: %s

Here are web search results that may help:
%s

Based on these search results, refine your plan. Output ONLY valid JSON with the same structure.
If the search results don't change anything, return the original plan.

Refined plan:`, planJSON, instruction, resultsJSON)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.PlannerTimeoutSecs)*time.Second)
	defer cancel()

	response, err := p.llm.Generate(ctx, prompt, p.cfg.PlannerModel, p.cfg.Temperature.Planner, 4000)
	if err != nil {
		p.logger.LogError(fmt.Errorf("plan refinement failed, keeping original plan: %w", err))
		return original
	}

	refined, err := ParsePlan(response)
	if err != nil {
		p.logger.LogError(fmt.Errorf("failed to parse refined plan, keeping original: %w", err))
		return original
	}
	return refined
}

func (p *Planner) buildPrompt(instruction string, files []workspace.ScoredFile, searchResults []websearch.Result) string {
	var searchContext strings.Builder
	if len(searchResults) > 0 {
		searchContext.WriteString("\n\n## Web Search Results:\n")
		for _, result := range searchResults {
			searchContext.WriteString(fmt.Sprintf("- %s: %s\n", result.Title, result.Snippet))
		}
	}

	// The candidate list is the only unbounded input, so it is trimmed until
	// the assembled prompt fits the configured context window.
	used := utils.EstimateTokens(planPromptTemplate) +
		utils.EstimateTokens(instruction) +
		utils.EstimateTokens(searchContext.String())

	var fileList strings.Builder
	for i, f := range files {
		line := fmt.Sprintf("- %s (%d lines, %s)\n", f.Path, f.Lines, f.Extension)
		cost := utils.EstimateTokens(line)
		if used+cost > p.cfg.MaxContextTokens {
			p.logger.Logf("Candidate list truncated at %d/%d files to fit context window", i, len(files))
			break
		}
		used += cost
		fileList.WriteString(line)
	}

	return fmt.Sprintf(planPromptTemplate, instruction, fileList.String(), searchContext.String())
}
