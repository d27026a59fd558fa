package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alantheprice/codeagent/pkg/agent"
	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/llm"
	"github.com/alantheprice/codeagent/pkg/utils"
)

var (
	runProject       string
	runAutoApprove   bool
	runNoSearch      bool
	runNoInstall     bool
	runMaxIterations int
	runDryRun        bool
)

var runCmd = &cobra.Command{
	Use:   "run \"instruction\"",
	Short: "Execute an instruction against a project directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.AutoApprove = cfg.AutoApprove || runAutoApprove
		cfg.DryRun = runDryRun
		cfg.SkipPrompt = runAutoApprove
		if runNoSearch {
			cfg.EnableWebSearch = false
		}
		if runNoInstall {
			cfg.EnableAutoInstall = false
		}
		if runMaxIterations > 0 {
			cfg.MaxIterations = runMaxIterations
		}

		if err := os.MkdirAll(config.DotDir, 0755); err != nil {
			return err
		}
		logger := utils.NewLogger(config.DotDir, cfg.SkipPrompt)
		defer logger.Close()

		// An interrupt cancels the loop cooperatively; the agent finalizes
		// and persists its run state before exiting. Completed file writes
		// stay applied, with their backups available for manual revert.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, err := llm.NewClient(cfg.OllamaServerURL, logger)
		if err != nil {
			return err
		}
		return agent.New(cfg, client, logger).Run(ctx, args[0], runProject)
	},
}

func init() {
	runCmd.Flags().StringVar(&runProject, "project", ".", "project directory path")
	runCmd.Flags().BoolVar(&runAutoApprove, "auto-approve", false, "automatically approve all changes")
	runCmd.Flags().BoolVar(&runNoSearch, "no-search", false, "disable web search")
	runCmd.Flags().BoolVar(&runNoInstall, "no-install", false, "disable automatic package installation")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "maximum iterations (default from config)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "render previews without applying edits")
}
