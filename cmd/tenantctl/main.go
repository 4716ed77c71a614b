// tenantctl is an operator CLI for the tenant lifecycle orchestrator's
// HTTP API, adapted from the pack's landlord-cli (jaxxstorm-landlord):
// one cobra root command, one subcommand per tenant operation, and a
// thin HTTP client talking to the orchestrator's base URL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var apiURL string

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenantctl",
		Short: "CLI for the tenant lifecycle orchestrator",
		Long:  "Create tenants and drive their lifecycle transitions via the orchestrator's HTTP API.",
	}

	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8083", "orchestrator base URL")

	cmd.AddCommand(newCreateCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newUpdateCommand())
	cmd.AddCommand(newDeleteCommand())
	cmd.AddCommand(newActivateCommand())
	cmd.AddCommand(newSuspendCommand())
	cmd.AddCommand(newDeactivateCommand())
	cmd.AddCommand(newReactivateCommand())

	return cmd
}
