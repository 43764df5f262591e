package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/livedoc/internal/orchestrator"
	"github.com/ziadkadry99/livedoc/internal/schema"
)

var promptWindow string

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the generator prompts",
	Long:  `Prints the system prompt sent with every update cycle. With --window, also prints the user prompt built for that text against an empty document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, orchestrator.SystemPrompt())
		if promptWindow == "" {
			return nil
		}
		fmt.Fprintln(out, "\n---")
		fmt.Fprintln(out, orchestrator.BuildUserPrompt(promptWindow, schema.EmptyDocument(), nil))
		return nil
	},
}

func init() {
	promptCmd.Flags().StringVar(&promptWindow, "window", "", "transcript text to build a user prompt for")
	rootCmd.AddCommand(promptCmd)
}
