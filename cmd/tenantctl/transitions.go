package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newTransitionCommand(use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tenant-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := newClient(apiURL).transition(context.Background(), args[0], action)
			if err != nil {
				return err
			}
			printTenant(cmd, rec)
			return nil
		},
	}
}

func newActivateCommand() *cobra.Command {
	return newTransitionCommand("activate", "Activate a PENDING or SUSPENDED tenant", "activate")
}

func newSuspendCommand() *cobra.Command {
	return newTransitionCommand("suspend", "Suspend an ACTIVE tenant", "suspend")
}

func newDeactivateCommand() *cobra.Command {
	return newTransitionCommand("deactivate", "Deactivate an ACTIVE or SUSPENDED tenant", "deactivate")
}

func newReactivateCommand() *cobra.Command {
	return newTransitionCommand("reactivate", "Reactivate an INACTIVE tenant", "reactivate")
}
