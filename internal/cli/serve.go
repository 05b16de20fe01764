package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/andy/rapport/internal/api"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API with HTTP basic auth",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appInstance.Config.Server
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cfg.PasswordHash == "" {
			return ierr.NewError("server.password_hash is not set").
				WithHint("Kein API-Passwort gesetzt: 'rapport passwd --save' ausführen").
				Mark(ierr.ErrConfiguration)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := api.New(cfg.Addr, api.Services{
			Clients:  appInstance.ClientService,
			Entries:  appInstance.EntryService,
			Reports:  appInstance.ReportService,
			Invoices: appInstance.InvoiceService,
		}, api.Credentials{
			Username:     cfg.Username,
			PasswordHash: cfg.PasswordHash,
		})
		return srv.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
}
