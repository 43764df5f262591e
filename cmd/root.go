package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/livedoc/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "livedoc",
	Short: "Turn live speech into a structured process document",
	Long: `livedoc listens to a conversation about a business process, transcribes
it and keeps a structured JSON process document up to date by asking an LLM
for small JSON Patch updates after every chunk of speech.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and full LLM responses")
}
