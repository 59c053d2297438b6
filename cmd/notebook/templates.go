package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newTemplatesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the document templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			for _, t := range catalog.All() {
				cmd.Printf("%-12s %-14s %s\n", t.ID, t.Name, t.Description)
				cmd.Printf("%-12s %-14s sections: %s\n", "", "", strings.Join(t.Structure, ", "))
			}
			return nil
		},
	}
}
