package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"notebook/internal/tui"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		templateID string
		query      string
		raw        bool
		showPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "generate [files...]",
		Short: "Generate a document from source files",
		Long: `Indexes the given files and generates the selected template from the passages
closest to the query. Without --query the template name is used as the query.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.loadSources(ctx, cmd.ErrOrStderr(), args); err != nil {
				return fmt.Errorf("load sources: %w", err)
			}
			res, err := a.notebook.Generate(ctx, templateID, query)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}
			if showPrompt {
				cmd.Println(res.Prompt.Text)
				cmd.Println("----")
			}
			out := res.Text
			if !raw {
				if rendered, err := tui.RenderMarkdown(res.Text, 100); err == nil {
					out = rendered
				}
			}
			cmd.Println(out)
			if res.Prompt.Truncated() {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: %d retrieved chunks did not fit in the prompt\n", res.Prompt.Dropped)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&templateID, "template", "t", "summary", "template id or name")
	cmd.Flags().StringVarP(&query, "query", "q", "", "what the document should focus on")
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal rendering")
	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "print the assembled prompt before the document")
	return cmd
}
