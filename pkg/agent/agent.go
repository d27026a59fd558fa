package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/diff"
	"github.com/alantheprice/codeagent/pkg/llm"
	"github.com/alantheprice/codeagent/pkg/patcher"
	"github.com/alantheprice/codeagent/pkg/planner"
	"github.com/alantheprice/codeagent/pkg/state"
	"github.com/alantheprice/codeagent/pkg/tools"
	"github.com/alantheprice/codeagent/pkg/utils"
	"github.com/alantheprice/codeagent/pkg/websearch"
	"github.com/alantheprice/codeagent/pkg/worker"
	"github.com/alantheprice/codeagent/pkg/workspace"
)

// Model is the transport surface the agent needs: prompt generation for the
// planner and worker, plus a liveness check at startup.
type Model interface {
	llm.Generator
	CheckConnection(ctx context.Context) bool
}

// Agent drives the scan -> select -> plan -> edit -> test loop over bounded
// iterations. Everything runs single-threaded and blocking; the only
// suspension points are the model, shell and search round-trips plus operator
// confirmation in interactive mode.
type Agent struct {
	cfg       *config.Config
	llm       Model
	scanner   *workspace.Scanner
	selector  *workspace.Selector
	extractor *workspace.Extractor
	planner   *planner.Planner
	worker    *worker.Worker
	patcher   *patcher.Patcher
	runner    *tools.Runner
	search    *websearch.Client
	state     *state.RunState
	logger    *utils.Logger
}

func New(cfg *config.Config, model Model, logger *utils.Logger) *Agent {
	a := &Agent{
		cfg:       cfg,
		llm:       model,
		scanner:   workspace.NewScanner(cfg, logger),
		selector:  workspace.NewSelector(cfg, logger),
		extractor: workspace.NewExtractor(cfg),
		planner:   planner.NewPlanner(cfg, model, logger),
		worker:    worker.NewWorker(cfg, model, logger),
		patcher:   patcher.NewPatcher(cfg, logger),
		runner:    tools.NewRunner(cfg.ShellTimeoutSecs, logger),
		state:     state.New(),
		logger:    logger,
	}
	if cfg.EnableWebSearch {
		a.search = websearch.NewClient(logger)
	}
	return a
}

// Run executes the full iteration loop for one instruction. Failure of any
// single step inside the loop is logged into the run state and skipped; only
// the inability to reach the model at startup aborts the run before any file
// is touched.
func (a *Agent) Run(ctx context.Context, instruction, projectPath string) error {
	a.logger.LogProcessStep(fmt.Sprintf("Starting code agent\nInstruction: %s\nProject: %s", instruction, projectPath))

	a.state.Start(instruction)
	defer a.finalize()

	if !a.llm.CheckConnection(ctx) {
		return fmt.Errorf("cannot connect to Ollama at %s (start it with: ollama serve)", a.cfg.OllamaServerURL)
	}

	for iteration := 1; iteration <= a.cfg.MaxIterations; iteration++ {
		if ctx.Err() != nil {
			a.logger.LogProcessStep("Execution interrupted by user")
			return nil
		}
		a.state.Iteration = iteration
		a.logger.LogProcessStep(utils.Capitalize(fmt.Sprintf("iteration %d/%d", iteration, a.cfg.MaxIterations)))

		files, err := a.scanner.Scan(projectPath)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			a.logger.LogProcessStep("No files found to process")
			break
		}

		candidates := a.selector.Select(files, instruction)

		plan := a.planner.Create(ctx, instruction, candidates, nil)
		a.state.Plan = plan

		if plan.IsEmpty() {
			a.logger.LogProcessStep("No actions needed. Task complete!")
			break
		}

		if len(plan.PackageInstalls) > 0 && a.cfg.EnableAutoInstall {
			a.installPackages(ctx, plan.PackageInstalls)
		}

		if len(plan.WebSearchQueries) > 0 && a.search != nil {
			results := a.performSearches(plan.WebSearchQueries)
			if len(results) > 0 {
				plan = a.planner.Refine(ctx, plan, results, instruction)
				a.state.Plan = plan
			}
		}

		if len(plan.Targets) > 0 {
			a.executeEdits(ctx, plan, instruction, projectPath)
		}

		if plan.RunTests {
			a.runTests(ctx, plan.TestCommand, projectPath)
		}

		if !a.shouldContinue(plan) {
			a.logger.LogProcessStep("All tasks completed!")
			break
		}
	}
	return nil
}

// finalize stamps the end time, persists the run state and prints the
// summary. It runs on success, interrupt and fatal error alike.
func (a *Agent) finalize() {
	a.state.Finish()
	if err := a.state.Save(state.DefaultPath); err != nil {
		a.logger.LogError(fmt.Errorf("failed to persist run state: %w", err))
	}
	fmt.Println("\n" + a.state.Summary())
}

func (a *Agent) installPackages(ctx context.Context, specs []string) {
	results := a.runner.InstallPackages(ctx, specs)
	for _, spec := range specs {
		success := results[spec]
		a.state.AddPackageInstall(spec, success)
		if !success {
			a.logger.LogProcessStep(fmt.Sprintf("Failed to install %s", spec))
		}
	}
}

func (a *Agent) performSearches(queries []string) []websearch.Result {
	var all []websearch.Result
	for _, query := range queries {
		results, err := a.search.Search(query, a.cfg.SearchMaxResults)
		if err != nil {
			a.state.AddError(fmt.Errorf("search %q failed: %w", query, err))
			a.logger.LogError(err)
			continue
		}
		a.state.AddSearchQuery(query, len(results))
		all = append(all, results...)
	}
	return all
}

// executeEdits processes every plan target. Each target fails soft: a missing
// file, empty edit batch, declined preview or patch error logs a note and the
// loop moves on.
func (a *Agent) executeEdits(ctx context.Context, plan planner.Plan, instruction, projectPath string) {
	keywords := utils.ExtractKeywords(instruction)

	for _, target := range plan.Targets {
		if ctx.Err() != nil {
			return
		}
		fullPath := filepath.Join(projectPath, target.File)
		if _, err := os.Stat(fullPath); err != nil {
			a.logger.LogProcessStep(fmt.Sprintf("File not found: %s", target.File))
			continue
		}

		a.logger.LogProcessStep(fmt.Sprintf("Processing: %s", target.File))

		// Snippets are invalidated by edits, so each target re-reads its file.
		lines, err := workspace.ReadFileLines(fullPath)
		if err != nil {
			a.state.AddError(err)
			a.logger.LogError(err)
			continue
		}

		snippet := a.extractor.Extract(target.File, lines, keywords)
		actionDescription := actionFor(plan, target)

		edits := a.worker.GenerateEdits(ctx, target.File, snippet, instruction, actionDescription)
		if len(edits) == 0 {
			a.logger.LogProcessStep(fmt.Sprintf("No edits generated for %s", target.File))
			continue
		}

		if a.cfg.DryRun {
			fmt.Println("\n" + a.patcher.Preview(fullPath, edits))
			continue
		}

		if !a.cfg.AutoApprove {
			fmt.Println("\n" + a.patcher.Preview(fullPath, edits))
			prompt := fmt.Sprintf("Apply %d edits to %s?", len(edits), target.File)
			if !a.logger.AskForConfirmation(prompt, false) {
				a.logger.LogProcessStep("Skipped by user")
				continue
			}
		}

		applied, err := a.patcher.Apply(fullPath, edits)
		if err != nil {
			a.state.AddError(err)
			a.logger.LogError(err)
			continue
		}
		if !applied {
			continue
		}

		a.state.AddModifiedFile(target.File, len(edits))
		a.reportDiff(fullPath, target.File)
	}
}

// actionFor returns the description of the first plan action that covers the
// target file, falling back to the target's reason.
func actionFor(plan planner.Plan, target planner.Target) string {
	for _, action := range plan.Actions {
		for _, file := range action.Files {
			if file == target.File {
				return action.Description
			}
		}
	}
	if target.Reason != "" {
		return target.Reason
	}
	return "Make necessary changes"
}

// reportDiff prints a colored diff of the pre-apply backup against the
// current file content.
func (a *Agent) reportDiff(fullPath, displayPath string) {
	backupPath := a.patcher.LatestBackup(fullPath)
	if backupPath == "" {
		return
	}
	oldContent, err := workspace.ReadFileContent(backupPath)
	if err != nil {
		return
	}
	newContent, err := workspace.ReadFileContent(fullPath)
	if err != nil {
		return
	}
	if d := diff.GetDiff(displayPath, oldContent, newContent); d != "" {
		fmt.Println("\n" + d)
	}
}

func (a *Agent) runTests(ctx context.Context, testCommand, projectPath string) {
	if testCommand == "" {
		testCommand = "pytest"
	}
	argv := splitCommand(testCommand)
	if len(argv) == 0 {
		return
	}

	result := a.runner.Run(ctx, argv, projectPath)
	a.state.AddTestRun(testCommand, result.Success, result.Stdout+result.Stderr)

	if result.Success {
		a.logger.LogProcessStep("Tests passed!")
	} else {
		a.logger.LogProcessStep("Tests failed!")
		fmt.Println(result.Stderr)
	}
}

// shouldContinue decides whether to start another iteration: stop when the
// plan has no remaining actions, always continue in auto mode, otherwise ask
// the operator.
func (a *Agent) shouldContinue(plan planner.Plan) bool {
	if len(plan.Actions) == 0 {
		return false
	}
	if a.cfg.AutoApprove {
		return true
	}
	return a.logger.AskForConfirmation("Continue to next iteration?", false)
}

// splitCommand breaks a command line on whitespace. Test commands with quoted
// arguments are not supported.
func splitCommand(command string) []string {
	return strings.Fields(command)
}
