package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"buddy/src/database"
)

var historyLimit int

// historyCmd shows recent conversation turns
var historyCmd = &cobra.Command{
	Use:   "history <buddy-id>",
	Short: "Show recent conversation turns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		turns, err := a.service.History(cmd.Context(), args[0], historyLimit)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(turns) == 0 {
			fmt.Printf("No conversations found for %s\n", args[0])
			return nil
		}

		printTurns(turns)
		return nil
	},
}

// buddiesCmd lists stored buddies
var buddiesCmd = &cobra.Command{
	Use:   "buddies",
	Short: "List stored buddies",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		buddies, err := a.db.ListBuddies(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list buddies: %w", err)
		}
		if len(buddies) == 0 {
			fmt.Println("No buddies yet")
			return nil
		}

		for _, b := range buddies {
			fmt.Printf("%-20s %-14s %-8s %v  (since %s)\n",
				b.ID, b.Personality, b.Mood, b.Traits, b.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func printTurns(turns []database.Turn) {
	for _, t := range turns {
		fmt.Printf("[%s] you: %s\n", t.Timestamp.Format("2006-01-02 15:04:05"), truncate(t.UserMessage, 80))
		fmt.Printf("%s buddy (%s): %s\n", strings.Repeat(" ", 21), t.Mood, truncate(t.BuddyReply, 80))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(buddiesCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of turns to show")
}
