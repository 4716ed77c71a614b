package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCommand() *cobra.Command {
	var name, contactEmail, configJSON string

	cmd := &cobra.Command{
		Use:   "update <tenant-id>",
		Short: "Replace a tenant's name, contact email, and config (unset flags are sent empty)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := map[string]string{}
			if configJSON != "" {
				if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
					return fmt.Errorf("--config: %w", err)
				}
			}

			rec, err := newClient(apiURL).updateTenant(context.Background(), args[0], updateTenantInput{
				Name:         name,
				ContactEmail: contactEmail,
				Config:       config,
			})
			if err != nil {
				return err
			}
			printTenant(cmd, rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "tenant display name")
	cmd.Flags().StringVar(&contactEmail, "contact-email", "", "tenant contact email")
	cmd.Flags().StringVar(&configJSON, "config", "", "tenant config as a JSON object")

	return cmd
}
