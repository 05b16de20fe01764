package cli

import (
	"context"
	"fmt"

	"github.com/andy/rapport/internal/app"
	"github.com/spf13/cobra"
)

var appInstance *app.App

// annotationNoApp marks commands that run without opening the database.
const annotationNoApp = "rapport/no-app"

var rootCmd = &cobra.Command{
	Use:   "rapport",
	Short: "Time tracking and invoicing for IT support work",
	Long: `Rapport records support work per client, computes its cost and issues
invoices with a Swiss QR payment slip.

By default, running rapport without arguments launches the interactive TUI.
Use subcommands for CLI operations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance != nil || !needsApp(cmd) {
			return nil
		}
		a, err := app.New(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		appInstance = a
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return launchTUI(cmd, args)
	},
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	defer func() {
		if appInstance != nil {
			appInstance.Close()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// needsApp is false for commands that must not prompt for the database key.
func needsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
		if c.Annotations[annotationNoApp] == "true" {
			return false
		}
	}
	return true
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

func init() {
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(loginsCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(tuiCmd)
}
