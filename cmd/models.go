package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/llm"
	"github.com/alantheprice/codeagent/pkg/utils"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the Ollama server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := utils.NewLogger(config.DotDir, true)
		defer logger.Close()

		client, err := llm.NewClient(cfg.OllamaServerURL, logger)
		if err != nil {
			return err
		}
		names, err := client.ListModels(context.Background())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}
