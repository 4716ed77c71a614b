package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <tenant-id>",
		Short: "Fetch a tenant's current record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := newClient(apiURL).getTenant(context.Background(), args[0])
			if err != nil {
				return err
			}
			printTenant(cmd, rec)
			return nil
		},
	}
	return cmd
}
