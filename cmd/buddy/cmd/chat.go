package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	chatPersona     string
	chatShowHistory bool
)

// chatCmd sends one message through the reply pipeline
var chatCmd = &cobra.Command{
	Use:   "chat <buddy-id> <message...>",
	Short: "Send a message to a buddy",
	Long: `Send a message to a buddy and print its mood and reply.

The exchange is stored in the local database just like an API call.

Examples:
  buddy chat b1 "thanks so much!"
  buddy chat b2 --persona sarcastic "how was your day"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		res := a.service.Chat(cmd.Context(), args[0], chatPersona, strings.Join(args[1:], " "))

		fmt.Printf("[%s] %s\n", res.Mood, res.Reply)
		if chatShowHistory {
			fmt.Println()
			printTurns(res.History)
		}
		return nil
	},
}

// initBuddyCmd initializes or resets a buddy
var initBuddyCmd = &cobra.Command{
	Use:   "init <buddy-id>",
	Short: "Initialize or reset a buddy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		fmt.Println(a.service.InitBuddy(cmd.Context(), args[0], chatPersona))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(initBuddyCmd)

	for _, c := range []*cobra.Command{chatCmd, initBuddyCmd} {
		c.Flags().StringVarP(&chatPersona, "persona", "P", "friendly", "persona template (friendly, sarcastic, romantic, motivational, ...)")
	}
	chatCmd.Flags().BoolVar(&chatShowHistory, "history", false, "print recent turns after the reply")
}
