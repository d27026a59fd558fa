package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/planner"
	"github.com/alantheprice/codeagent/pkg/utils"
)

// DefaultPath is where the run state is persisted at finalization.
var DefaultPath = filepath.Join(config.DotDir, "run_state.json")

// testOutputLimit truncates captured test output in the log.
const testOutputLimit = 500

// ModifiedFile records one file that received edits.
type ModifiedFile struct {
	File      string    `json:"file"`
	Edits     int       `json:"edits"`
	Timestamp time.Time `json:"timestamp"`
}

// PackageInstall records one install attempt.
type PackageInstall struct {
	Package   string    `json:"package"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// TestRun records one test-command execution.
type TestRun struct {
	Command   string    `json:"command"`
	Success   bool      `json:"success"`
	Output    string    `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchQuery records one web search.
type SearchQuery struct {
	Query     string    `json:"query"`
	Results   int       `json:"results"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEntry records one recoverable error.
type ErrorEntry struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// RunState accumulates everything done during one instruction-run. It is
// created at run start, mutated by the orchestrator after every step, and
// finalized on success, interrupt, or fatal error.
type RunState struct {
	Iteration         int              `json:"iteration"`
	Instruction       string           `json:"instruction"`
	Plan              planner.Plan     `json:"plan"`
	FilesModified     []ModifiedFile   `json:"files_modified"`
	PackagesInstalled []PackageInstall `json:"packages_installed"`
	TestsRun          []TestRun        `json:"tests_run"`
	SearchQueries     []SearchQuery    `json:"search_queries"`
	Errors            []ErrorEntry     `json:"errors"`
	StartTime         *time.Time       `json:"start_time"`
	EndTime           *time.Time       `json:"end_time"`
}

func New() *RunState {
	return &RunState{Plan: planner.EmptyPlan()}
}

// Start stamps the beginning of a run for the given instruction.
func (s *RunState) Start(instruction string) {
	now := time.Now()
	s.Instruction = instruction
	s.StartTime = &now
}

// Finish stamps the end of the run.
func (s *RunState) Finish() {
	now := time.Now()
	s.EndTime = &now
}

func (s *RunState) AddModifiedFile(filePath string, editCount int) {
	s.FilesModified = append(s.FilesModified, ModifiedFile{
		File:      filePath,
		Edits:     editCount,
		Timestamp: time.Now(),
	})
}

func (s *RunState) AddPackageInstall(pkg string, success bool) {
	s.PackagesInstalled = append(s.PackagesInstalled, PackageInstall{
		Package:   pkg,
		Success:   success,
		Timestamp: time.Now(),
	})
}

func (s *RunState) AddTestRun(command string, success bool, output string) {
	s.TestsRun = append(s.TestsRun, TestRun{
		Command:   command,
		Success:   success,
		Output:    utils.TruncateText(output, testOutputLimit),
		Timestamp: time.Now(),
	})
}

func (s *RunState) AddSearchQuery(query string, resultCount int) {
	s.SearchQueries = append(s.SearchQueries, SearchQuery{
		Query:     query,
		Results:   resultCount,
		Timestamp: time.Now(),
	})
}

func (s *RunState) AddError(err error) {
	s.Errors = append(s.Errors, ErrorEntry{
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// Save persists the full state as JSON. The record is loadable to resume
// reporting, not to resume mid-iteration execution.
func (s *RunState) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a previously persisted run state.
func Load(path string) (*RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse run state %s: %w", path, err)
	}
	return s, nil
}

// Summary renders the execution report shown at the end of a run.
func (s *RunState) Summary() string {
	var sb strings.Builder
	divider := strings.Repeat("=", 60)

	sb.WriteString(divider + "\n")
	sb.WriteString("EXECUTION SUMMARY\n")
	sb.WriteString(divider + "\n")
	sb.WriteString(fmt.Sprintf("Instruction: %s\n", s.Instruction))
	sb.WriteString(fmt.Sprintf("Iterations: %d\n", s.Iteration))
	sb.WriteString(fmt.Sprintf("Files Modified: %d\n", len(s.FilesModified)))
	sb.WriteString(fmt.Sprintf("Packages Installed: %d\n", len(s.PackagesInstalled)))
	sb.WriteString(fmt.Sprintf("Tests Run: %d\n", len(s.TestsRun)))
	sb.WriteString(fmt.Sprintf("Web Searches: %d\n", len(s.SearchQueries)))
	sb.WriteString(fmt.Sprintf("Errors: %d\n", len(s.Errors)))
	if s.StartTime != nil && s.EndTime != nil {
		sb.WriteString(fmt.Sprintf("Duration: %.2f seconds\n", s.EndTime.Sub(*s.StartTime).Seconds()))
	}
	sb.WriteString(divider)
	return sb.String()
}
