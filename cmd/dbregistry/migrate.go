package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations for every connection with a migrations directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			for i := range rt.conns {
				if rt.conns[i].Migrations.Directory != "" {
					rt.conns[i].Migrations.Auto = true
				}
			}

			if err := rt.provision(cmd.Context()); err != nil {
				return err
			}
			pending := rt.hooks.Pending()
			if err := rt.hooks.RunBeforeStart(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "applied migrations for %d connection(s)\n", len(pending))
			return err
		},
	}
}
