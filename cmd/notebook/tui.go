package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"notebook/internal/tui"
)

func newTUICmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [files...]",
		Short: "Pick templates and generate documents interactively",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// logs would corrupt the alternate screen
			a, err := newApp(root, io.Discard)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.loadSources(ctx, cmd.ErrOrStderr(), args); err != nil {
				return fmt.Errorf("load sources: %w", err)
			}
			m := tui.New(a.notebook, tui.WithContext(ctx))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}
