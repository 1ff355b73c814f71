package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/normanking/facesync/internal/config"
	"github.com/normanking/facesync/internal/expression"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List available expression profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			catalog := expression.NewCatalog()
			if cfg.Expression.CatalogPath != "" {
				if err := catalog.LoadFile(cfg.Expression.CatalogPath); err != nil {
					return err
				}
			}

			names := catalog.Names()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return json.NewEncoder(os.Stdout).Encode(names)
			}
			for _, name := range names {
				p := catalog.Get(name)
				fmt.Printf("%-12s %d targets\n", name, len(p.Targets))
			}
			return nil
		},
	}
}
