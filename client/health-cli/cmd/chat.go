package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [user-id] [message]",
	Short: "Send a message, or start an interactive session when no message is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newAPIClient(serverURL, timeout)
		userID := args[0]
		if len(args) == 2 {
			answer, err := c.chat(userID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		}
		return chatLoop(c, userID, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// chatLoop 逐行读取输入直到 EOF 或 /quit。
func chatLoop(c *apiClient, userID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" {
			return nil
		}
		if line != "" {
			answer, err := c.chat(userID, line)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, answer)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}
