package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codeagent",
	Short: "Autonomous instruction-driven code modification agent",
	Long: `Codeagent takes a natural-language instruction and a project directory,
identifies the relevant files, asks a local LLM for a structured edit plan,
turns plan entries into exact match/replace edits, and applies them safely
with backups across bounded iterations.

Available commands:
  run      - Execute an instruction against a project directory
  models   - List models available on the Ollama server
  log      - Show the summary of the last recorded run`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(logCmd)
}
