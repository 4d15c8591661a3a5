package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var jsonOutput bool

var memoryCmd = &cobra.Command{
	Use:   "memory [user-id]",
	Short: "List the facts remembered about a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facts, err := newAPIClient(serverURL, timeout).memory(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(facts)
		}
		if len(facts) == 0 {
			fmt.Fprintln(out, "No facts remembered yet.")
			return nil
		}
		for _, f := range facts {
			fmt.Fprintf(out, "- %s (%s)\n", f.Content, f.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	memoryCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the raw JSON array")
	rootCmd.AddCommand(memoryCmd)
}
