package cli

import (
	"fmt"

	"github.com/andy/rapport/internal/app"
	"github.com/andy/rapport/internal/config"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var passwdCmd = &cobra.Command{
	Use:         "passwd",
	Short:       "Hash a password for the API basic auth",
	Annotations: map[string]string{annotationNoApp: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := app.ReadPassword("API password: ")
		if err != nil {
			return err
		}
		confirm, err := app.ReadPassword("Confirm password: ")
		if err != nil {
			return err
		}
		hash, err := hashPassword(password, confirm)
		if err != nil {
			return err
		}

		save, _ := cmd.Flags().GetBool("save")
		if !save {
			fmt.Println(hash)
			return nil
		}

		path := config.DefaultConfigPath()
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Server.PasswordHash = hash
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("✓ Password hash saved to %s\n", path)
		return nil
	},
}

func hashPassword(password, confirm string) (string, error) {
	if password == "" {
		return "", ierr.NewError("password cannot be empty").
			WithHint("Passwort darf nicht leer sein").
			Mark(ierr.ErrValidation)
	}
	if password != confirm {
		return "", ierr.NewError("passwords do not match").
			WithHint("Passwörter stimmen nicht überein").
			Mark(ierr.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func init() {
	passwdCmd.Flags().Bool("save", false, "Store the hash in the config file instead of printing it")
}
