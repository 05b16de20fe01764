package cli

import (
	"fmt"
	"strings"

	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/service"
	"github.com/spf13/cobra"
)

var loginsCmd = &cobra.Command{
	Use:   "logins",
	Short: "Manage device logins of a client",
}

var loginsListCmd = &cobra.Command{
	Use:   "list [client_id]",
	Short: "List device logins of a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, err := parseID(args[0], "client")
		if err != nil {
			return err
		}
		logins, err := appInstance.ClientService.ListLogins(cmd.Context(), clientID)
		if err != nil {
			return fmt.Errorf("failed to list logins: %w", err)
		}
		if len(logins) == 0 {
			fmt.Println("No logins found")
			return nil
		}
		printLogins(logins)
		return nil
	},
}

var loginsAddCmd = &cobra.Command{
	Use:   "add [client_id] [device_type]",
	Short: "Add a device login",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, err := parseID(args[0], "client")
		if err != nil {
			return err
		}
		in := service.LoginInput{DeviceType: args[1]}
		applyLoginFlags(cmd, &in)

		login, err := appInstance.ClientService.AddLogin(cmd.Context(), clientID, in)
		if err != nil {
			return fmt.Errorf("failed to add login: %w", err)
		}
		fmt.Printf("✓ Login added: %s (ID: %d)\n", login.DeviceType, login.ID)
		return nil
	},
}

var loginsEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a device login",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseID(args[0], "login")
		if err != nil {
			return err
		}
		current, err := appInstance.LoginRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get login: %w", err)
		}

		in := service.LoginInput{
			DeviceType:  current.DeviceType,
			Description: current.Description,
			Username:    current.Username,
			Password:    current.Password,
		}
		if cmd.Flags().Changed("type") {
			in.DeviceType, _ = cmd.Flags().GetString("type")
		}
		applyLoginFlags(cmd, &in)

		login, err := appInstance.ClientService.UpdateLogin(ctx, id, in)
		if err != nil {
			return fmt.Errorf("failed to update login: %w", err)
		}
		fmt.Printf("✓ Login updated: %s\n", login.DeviceType)
		return nil
	},
}

func applyLoginFlags(cmd *cobra.Command, in *service.LoginInput) {
	fields := map[string]*string{
		"description": &in.Description,
		"username":    &in.Username,
		"password":    &in.Password,
	}
	for name, target := range fields {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
}

func printLogins(logins []*domain.DeviceLogin) {
	fmt.Printf("%-5s %-15s %-20s %-20s %-20s\n", "ID", "Device", "Username", "Password", "Description")
	fmt.Println(strings.Repeat("-", 84))
	for _, l := range logins {
		fmt.Printf("%-5d %-15s %-20s %-20s %-20s\n",
			l.ID,
			truncate(l.DeviceType, 15),
			truncate(l.Username, 20),
			truncate(l.Password, 20),
			truncate(l.Description, 20),
		)
	}
}

func addLoginFlags(cmd *cobra.Command) {
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("username", "", "Username")
	cmd.Flags().String("password", "", "Password")
}

func init() {
	loginsCmd.AddCommand(loginsListCmd)
	loginsCmd.AddCommand(loginsAddCmd)
	loginsCmd.AddCommand(loginsEditCmd)

	addLoginFlags(loginsAddCmd)

	loginsEditCmd.Flags().String("type", "", "New device type")
	addLoginFlags(loginsEditCmd)
}
