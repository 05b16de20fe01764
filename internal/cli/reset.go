package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/andy/rapport/internal/repository"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset data in the database",
	Long: `Reset data in the database. Invoice numbers already issued are never
handed out again.

Examples:
  rapport reset entries    # Delete all time entries and invoices
  rapport reset all        # Also delete clients and their device logins`,
}

var resetEntriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Delete all time entries and invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReset(cmd, repository.ResetEntries,
			"This will delete ALL time entries and invoices. Continue?",
			"All time entries and invoices have been deleted.")
	},
}

var resetAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Delete ALL data: clients, logins, entries, invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReset(cmd, repository.ResetAll,
			"This will delete ALL data (clients, logins, entries, invoices). Continue?",
			"All data has been deleted.")
	},
}

func runReset(cmd *cobra.Command, scope repository.ResetScope, question, done string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes && !confirmPrompt(question) {
		fmt.Println("Cancelled.")
		return nil
	}
	if err := appInstance.MaintenanceRepo.Reset(cmd.Context(), scope); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	fmt.Println(done)
	return nil
}

func confirmPrompt(message string) bool {
	fmt.Printf("%s [y/N] ", message)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes" || input == "j" || input == "ja"
}

func init() {
	resetCmd.AddCommand(resetEntriesCmd)
	resetCmd.AddCommand(resetAllCmd)

	resetCmd.PersistentFlags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
