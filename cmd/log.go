package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alantheprice/codeagent/pkg/state"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the summary of the last recorded run",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := state.Load(state.DefaultPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("No recorded runs.")
				return nil
			}
			return err
		}
		fmt.Println(s.Summary())
		for _, f := range s.FilesModified {
			fmt.Printf("  modified %s (%d edits) at %s\n", f.File, f.Edits, f.Timestamp.Format("2006-01-02 15:04:05"))
		}
		for _, e := range s.Errors {
			fmt.Printf("  error: %s\n", e.Error)
		}
		return nil
	},
}
