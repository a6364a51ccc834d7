package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewSendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send <text...>",
		Short: "Send one message and print the assistant's reply",
		Long: `Send a single message to the HR assistant and print the reply.

Examples:
  hrchat send "How many vacation days do I have?"
  hrchat send -b http://localhost:8000 what is the parental leave policy`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			text := strings.Join(args, " ")
			reply, ok := a.Session.SendMessage(cmd.Context(), text)
			if !ok {
				return fmt.Errorf("nothing to send")
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			return nil
		},
	}
}
