package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "notebook",
		Short: "Generate documents grounded in your sources",
		Long: `Notebook reads PDF, plain text and Markdown sources, indexes them in memory
and generates a Summary, Study Guide, Briefing Doc, FAQ or Critique from the
passages most relevant to the chosen template.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config (default ./config.yaml, then ~/.config/notebook/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "override logging.format (text, json, pretty)")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newRetrieveCmd(opts),
		newTemplatesCmd(opts),
		newTUICmd(opts),
	)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
