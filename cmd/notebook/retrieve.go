package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRetrieveCmd(root *rootOptions) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "retrieve [query] [files...]",
		Short: "Show the chunks closest to a query",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if k <= 0 {
				k = a.cfg.Retrieval.TopK
			}
			ctx := cmd.Context()
			if err := a.loadSources(ctx, cmd.ErrOrStderr(), args[1:]); err != nil {
				return fmt.Errorf("load sources: %w", err)
			}
			results, err := a.notebook.Retrieve(ctx, args[0], k)
			if err != nil {
				return fmt.Errorf("retrieve: %w", err)
			}
			if len(results) == 0 {
				cmd.Println("No results found.")
				return nil
			}

			names := map[string]string{}
			for _, s := range a.notebook.Sources() {
				names[s.ID] = s.Name
			}
			for i, r := range results {
				cmd.Printf("  [%d] %s #%d @%d (%.3f)\n", i+1, names[r.Chunk.SourceID], r.Chunk.Index, r.Chunk.StartOffset, r.Score)
				cmd.Printf("      %s\n\n", snippet(r.Chunk.Text, 160))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "limit", "k", 0, "number of chunks (default retrieval.top_k)")
	return cmd
}

func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "…"
}
