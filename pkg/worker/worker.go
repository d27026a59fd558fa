package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/llm"
	"github.com/alantheprice/codeagent/pkg/planner"
	"github.com/alantheprice/codeagent/pkg/utils"
	"github.com/alantheprice/codeagent/pkg/workspace"
)

// OpReplace is the only edit operation currently supported.
const OpReplace = "replace"

// EditOperation is an exact match-and-replace instruction. An edit is
// applicable only if Match occurs exactly once in the current file content.
type EditOperation struct {
	Operation   string `json:"operation"`
	Match       string `json:"match"`
	Replacement string `json:"replacement"`
}

// Worker asks the model to turn a single plan entry into concrete textual
// edits for one file.
type Worker struct {
	cfg       *config.Config
	llm       llm.Generator
	extractor *workspace.Extractor
	logger    *utils.Logger
}

func NewWorker(cfg *config.Config, generator llm.Generator, logger *utils.Logger) *Worker {
	return &Worker{
		cfg:       cfg,
		llm:       generator,
		extractor: workspace.NewExtractor(cfg),
		logger:    logger,
	}
}

// GenerateEdits requests edit operations for a file snippet. Transport or
// parse failure yields an empty list; the caller skips the target and moves
// on.
func (w *Worker) GenerateEdits(ctx context.Context, filePath string, snippet workspace.Snippet, instruction, actionDescription string) []EditOperation {
	w.logger.LogProcessStep(fmt.Sprintf("WORKER: Generating edits for %s", filePath))

	prompt := w.buildPrompt(filePath, snippet, instruction, actionDescription)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(w.cfg.WorkerTimeoutSecs)*time.Second)
	defer cancel()

	response, err := w.llm.Generate(ctx, prompt, w.cfg.WorkerModel, w.cfg.Temperature.Worker, 6000)
	if err != nil {
		w.logger.LogError(fmt.Errorf("edit generation produced no edits: %w", err))
		return nil
	}

	edits, err := ParseEdits(response)
	if err != nil {
		w.logger.LogError(fmt.Errorf("failed to parse edits: %w", err))
		return nil
	}

	w.logger.LogProcessStep(fmt.Sprintf("Generated %d edits", len(edits)))
	return edits
}

// ParseEdits decodes a model response into edit operations. Entries with an
// unsupported operation are rejected individually, not fatally. A missing
// edits key defaults to an empty list.
func ParseEdits(response string) ([]EditOperation, error) {
	cleaned := planner.StripFences(response)

	var decoded struct {
		Edits []EditOperation `json:"edits"`
	}
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("response is not a valid edit list: %w", err)
	}

	edits := make([]EditOperation, 0, len(decoded.Edits))
	for _, edit := range decoded.Edits {
		if edit.Operation != OpReplace {
			continue
		}
		edits = append(edits, edit)
	}
	return edits, nil
}

// IsApplicable re-checks that the match is still unique in the current file
// content. The worker's own output is never trusted at face value; this
// validation runs independently before application.
func IsApplicable(edit EditOperation, content string) bool {
	if edit.Operation != OpReplace || edit.Match == "" {
		return false
	}
	return strings.Count(content, edit.Match) == 1
}

func (w *Worker) buildPrompt(filePath string, snippet workspace.Snippet, instruction, actionDescription string) string {
	return fmt.Sprintf(`You are an expert code editor AI.

## File: %s

## Current Code:
%s

## User Instruction:
%s

## Specific Action:
%s

## Your Task:
Generate precise code edits. Output ONLY valid JSON with this structure:

{
  "edits": [
    {
      "operation": "replace",
      "match": "exact code to find and replace (must match exactly)",
      "replacement": "new code to insert"
    }
  ]
}

## Rules:
1. Output ONLY valid JSON, no markdown, no explanation, no comments
2. "match" must be EXACT code from the file (copy-paste exactly)
3. Include enough context in "match" to be unique
4. "replacement" should be the complete new code
5. Preserve indentation and formatting
6. If no changes needed, return empty edits array
7. Multiple edits should be independent (don't overlap)

Generate edits now:`, filePath, w.extractor.Format(snippet), instruction, actionDescription)
}
