package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new anonymous user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := newAPIClient(serverURL, timeout).createUser()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User created!\nUser ID: %s\n", id)
		fmt.Fprintf(cmd.OutOrStdout(), "To start chatting, run: health-cli chat %s \"<message>\"\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(createUserCmd)
}
