package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alantheprice/codeagent/pkg/utils"
)

// CommandResult captures the outcome of one shell command.
type CommandResult struct {
	Success  bool
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes shell commands and package installs on behalf of the agent.
type Runner struct {
	timeout time.Duration
	logger  *utils.Logger
}

func NewRunner(timeoutSecs int, logger *utils.Logger) *Runner {
	return &Runner{
		timeout: time.Duration(timeoutSecs) * time.Second,
		logger:  logger,
	}
}

// Run executes argv in cwd (empty for the current directory) and returns the
// captured streams and exit code. A non-zero exit or timeout is reported in
// the result, not as an error.
func (r *Runner) Run(ctx context.Context, argv []string, cwd string) CommandResult {
	if len(argv) == 0 {
		return CommandResult{Stderr: "empty command", ExitCode: -1}
	}
	r.logger.LogProcessStep(fmt.Sprintf("Running: %s", strings.Join(argv, " ")))

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.Stderr = "command timed out"
		result.ExitCode = -1
		r.logger.Logf("Command timed out: %s", strings.Join(argv, " "))
		return result
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.Stderr = err.Error()
			result.ExitCode = -1
		}
		r.logger.Logf("Command failed with code %d", result.ExitCode)
		return result
	}

	result.Success = true
	return result
}

// PackageSpec is a parsed "manager:package" install request.
type PackageSpec struct {
	Manager string
	Package string
}

// ParsePackageSpec splits a "manager:package" string. A spec without a
// manager prefix gets the manager "unknown".
func ParsePackageSpec(spec string) PackageSpec {
	manager, pkg, found := strings.Cut(spec, ":")
	if !found {
		return PackageSpec{Manager: "unknown", Package: spec}
	}
	return PackageSpec{Manager: manager, Package: pkg}
}

// InstallPackages installs each "manager:package" spec and returns per-spec
// success. An unrecognized manager is reported as a failed install, never an
// error.
func (r *Runner) InstallPackages(ctx context.Context, specs []string) map[string]bool {
	results := make(map[string]bool, len(specs))
	for _, spec := range specs {
		parsed := ParsePackageSpec(spec)
		switch parsed.Manager {
		case "pip":
			r.logger.LogProcessStep(fmt.Sprintf("Installing %s via pip", parsed.Package))
			results[spec] = r.Run(ctx, []string{"pip", "install", parsed.Package}, "").Success
		case "npm":
			r.logger.LogProcessStep(fmt.Sprintf("Installing %s via npm", parsed.Package))
			results[spec] = r.Run(ctx, []string{"npm", "install", parsed.Package}, "").Success
		default:
			r.logger.LogProcessStep(fmt.Sprintf("Unknown package manager in spec %q", spec))
			results[spec] = false
		}
	}
	return results
}
