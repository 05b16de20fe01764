package cli

import (
	"fmt"
	"strings"

	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/service"
	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage clients",
	Long:  `List, add, show and edit clients.`,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		clients, err := appInstance.ClientService.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}

		if len(clients) == 0 {
			fmt.Println("No clients found")
			return nil
		}

		fmt.Printf("%-5s %-30s %-14s %-30s\n", "ID", "Name", "Hourly Rate", "Address")
		fmt.Println(strings.Repeat("-", 82))

		for _, client := range clients {
			fmt.Printf("%-5d %-30s %-14s %-30s\n",
				client.ID,
				truncate(client.Name, 30),
				chf(client.HourlyRate),
				truncate(strings.Join(client.EffectiveAddress().Lines(), ", "), 30),
			)
		}

		fmt.Printf("\nTotal: %d client(s)\n", len(clients))
		return nil
	},
}

var clientsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a client with its device logins",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		client, err := appInstance.ClientService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get client: %w", err)
		}
		logins, err := appInstance.ClientService.ListLogins(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list logins: %w", err)
		}

		fmt.Printf("%s (ID: %d)\n", client.Name, client.ID)
		fmt.Printf("  Hourly Rate: %s\n", chf(client.HourlyRate))
		if client.Email != "" {
			fmt.Printf("  Email: %s\n", client.Email)
		}
		if client.Phone != "" {
			fmt.Printf("  Phone: %s\n", client.Phone)
		}
		for _, line := range client.EffectiveAddress().Lines() {
			fmt.Printf("  %s\n", line)
		}
		if client.NeedsAddressMigration() {
			fmt.Println("  (address derived from legacy text, run 'rapport clients migrate-addresses')")
		}
		if client.ITInfrastructure != "" {
			fmt.Printf("\nIT infrastructure:\n%s\n", client.ITInfrastructure)
		}

		if len(logins) > 0 {
			fmt.Println("\nDevice logins:")
			printLogins(logins)
		}
		return nil
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.ClientInput{Name: args[0]}
		applyClientFlags(cmd, &in)

		client, err := appInstance.ClientService.Create(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		fmt.Printf("✓ Client created: %s (ID: %d)\n", client.Name, client.ID)
		fmt.Printf("  Hourly Rate: %s\n", chf(client.HourlyRate))
		return nil
	},
}

var clientsEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit an existing client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		client, err := appInstance.ClientService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get client: %w", err)
		}

		in := clientInputFrom(client)
		if cmd.Flags().Changed("name") {
			in.Name, _ = cmd.Flags().GetString("name")
		}
		applyClientFlags(cmd, &in)

		client, err = appInstance.ClientService.Update(ctx, id, in)
		if err != nil {
			return fmt.Errorf("failed to update client: %w", err)
		}

		fmt.Printf("✓ Client updated: %s\n", client.Name)
		return nil
	},
}

var clientsMigrateCmd = &cobra.Command{
	Use:   "migrate-addresses",
	Short: "Split legacy free-text addresses into structured fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := appInstance.ClientService.MigrateAddresses(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to migrate addresses: %w", err)
		}

		if len(report) == 0 {
			fmt.Println("No clients need migration")
			return nil
		}

		incomplete := 0
		for _, m := range report {
			mark := "✓"
			if !m.Complete {
				mark = "!"
				incomplete++
			}
			fmt.Printf("%s %-30s %s\n", mark, truncate(m.Name, 30), strings.Join(m.Address.Lines(), ", "))
		}

		fmt.Printf("\nMigrated %d client(s)", len(report))
		if incomplete > 0 {
			fmt.Printf(", %d without postal code or city (check with 'rapport clients edit')", incomplete)
		}
		fmt.Println()
		return nil
	},
}

// clientInputFrom returns the current values of client as edit input.
func clientInputFrom(c *domain.Client) service.ClientInput {
	addr := c.EffectiveAddress()
	return service.ClientInput{
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		ITInfrastructure: c.ITInfrastructure,
		HourlyRate:       c.HourlyRate.String(),
		Street:           addr.Street,
		HouseNumber:      addr.HouseNumber,
		PostalCode:       addr.PostalCode,
		City:             addr.City,
	}
}

// applyClientFlags copies changed flags into in. --address replaces the
// structured fields with parsed free text.
func applyClientFlags(cmd *cobra.Command, in *service.ClientInput) {
	fields := map[string]*string{
		"email":        &in.Email,
		"phone":        &in.Phone,
		"infra":        &in.ITInfrastructure,
		"rate":         &in.HourlyRate,
		"street":       &in.Street,
		"house-number": &in.HouseNumber,
		"postal-code":  &in.PostalCode,
		"city":         &in.City,
	}
	for name, target := range fields {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
	if cmd.Flags().Changed("address") {
		raw, _ := cmd.Flags().GetString("address")
		in.AddressText = strings.ReplaceAll(raw, `\n`, "\n")
		in.Street, in.HouseNumber, in.PostalCode, in.City = "", "", "", ""
	}
}

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "Client email")
	cmd.Flags().String("phone", "", "Client phone")
	cmd.Flags().String("infra", "", "Notes about the client's IT infrastructure")
	cmd.Flags().String("rate", "", "Hourly rate in CHF (default from config)")
	cmd.Flags().String("street", "", "Street")
	cmd.Flags().String("house-number", "", "House number")
	cmd.Flags().String("postal-code", "", "Postal code")
	cmd.Flags().String("city", "", "City")
	cmd.Flags().String("address", "", "Free-text address, e.g. \"Seestrasse 10\\n8001 Zürich\"")
}

func init() {
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsShowCmd)
	clientsCmd.AddCommand(clientsAddCmd)
	clientsCmd.AddCommand(clientsEditCmd)
	clientsCmd.AddCommand(clientsMigrateCmd)

	addClientFlags(clientsAddCmd)

	clientsEditCmd.Flags().String("name", "", "New name")
	addClientFlags(clientsEditCmd)
}
