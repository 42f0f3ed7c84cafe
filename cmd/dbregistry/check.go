package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCheckCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Provision every connection once and print the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			provisionErr := rt.provision(cmd.Context())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCLIENT")
			for _, name := range rt.registry.Names() {
				c, err := rt.registry.Get(name)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\n", name, c.Kind())
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return provisionErr
		},
	}
}
