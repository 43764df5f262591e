package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/livedoc/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize livedoc configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the LLM provider, model, language and server port, and writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
