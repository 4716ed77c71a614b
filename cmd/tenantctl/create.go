package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateCommand() *cobra.Command {
	var id, name, contactEmail string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant in PENDING status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" || name == "" {
				return fmt.Errorf("--id and --name are required")
			}

			rec, err := newClient(apiURL).createTenant(context.Background(), createTenantInput{
				ID:           id,
				Name:         name,
				ContactEmail: contactEmail,
			})
			if err != nil {
				return err
			}
			printTenant(cmd, rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "tenant id")
	cmd.Flags().StringVar(&name, "name", "", "tenant display name")
	cmd.Flags().StringVar(&contactEmail, "contact-email", "", "tenant contact email")

	return cmd
}
