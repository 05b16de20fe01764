package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/andy/rapport/internal/config"
	"github.com/andy/rapport/internal/crypto"
	"github.com/andy/rapport/internal/db"
	"github.com/andy/rapport/internal/document"
	"github.com/andy/rapport/internal/logger"
	"github.com/andy/rapport/internal/qrbill"
	"github.com/andy/rapport/internal/repository"
	"github.com/andy/rapport/internal/service"
	"golang.org/x/term"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	DB     *db.DB

	// Repositories
	ClientRepo      repository.ClientRepository
	LoginRepo       repository.LoginRepository
	EntryRepo       repository.TimeEntryRepository
	InvoiceRepo     repository.InvoiceRepository
	MaintenanceRepo repository.MaintenanceRepository

	// Services
	ClientService  service.ClientService
	EntryService   service.EntryService
	ReportService  service.ReportService
	InvoiceService service.InvoiceService
}

// New loads the config from the default path and builds the App.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates an App with a provided config (useful for testing)
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := logger.Setup(cfg.Logger()); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	password, err := encryptionKey(crypto.NewKeyring())
	if err != nil {
		return nil, err
	}
	return NewWithKey(ctx, cfg, password)
}

// NewWithKey opens the database with an explicit key and wires everything.
func NewWithKey(ctx context.Context, cfg *config.Config, password string) (*App, error) {
	rate, err := cfg.DefaultRate()
	if err != nil {
		return nil, err
	}
	rounding, err := cfg.RoundingMode()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	clientRepo := repository.NewClientRepo(database)
	loginRepo := repository.NewLoginRepo(database)
	entryRepo := repository.NewEntryRepo(database)
	invoiceRepo := repository.NewInvoiceRepo(database)

	docs := document.NewGenerator(qrbill.NewRenderer(), cfg.Payee)

	log := logger.WithComponent("app")
	log.Debug().Str("db", cfg.Database.Path).Msg("application initialized")

	return &App{
		Config:          cfg,
		DB:              database,
		ClientRepo:      clientRepo,
		LoginRepo:       loginRepo,
		EntryRepo:       entryRepo,
		InvoiceRepo:     invoiceRepo,
		MaintenanceRepo: repository.NewMaintenanceRepo(database),
		ClientService:   service.NewClientService(clientRepo, loginRepo, rate),
		EntryService:    service.NewEntryService(entryRepo, clientRepo, rounding),
		ReportService:   service.NewReportService(entryRepo, clientRepo, docs),
		InvoiceService:  service.NewInvoiceService(invoiceRepo, entryRepo, clientRepo, cfg.Payee, docs),
	}, nil
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	return a.Config.Save(config.DefaultConfigPath())
}

// WriteInvoicePDF stores the rendered invoice in the output directory and
// returns the file path.
func (a *App) WriteInvoicePDF(issued *service.IssuedInvoice) (string, error) {
	path := filepath.Join(a.Config.Invoice.OutputDir, issued.Invoice.InvoiceNumber+".pdf")
	if err := os.WriteFile(path, issued.PDF, 0644); err != nil {
		return "", fmt.Errorf("failed to write invoice pdf: %w", err)
	}
	return path, nil
}

func encryptionKey(kr crypto.Keyring) (string, error) {
	password, err := kr.GetKey()
	if err == nil {
		if err := db.ValidateKey(password); err != nil {
			return "", err
		}
		return password, nil
	}
	// Without a keyring a prompted key could not be kept for the next run.
	if !kr.IsAvailable() {
		return "", err
	}

	fmt.Println("Setting up database encryption for the first time...")
	password, err = promptForPassword()
	if err != nil {
		return "", fmt.Errorf("failed to set password: %w", err)
	}
	if err := db.ValidateKey(password); err != nil {
		return "", err
	}
	if err := kr.SetKey(password); err != nil {
		return "", fmt.Errorf("failed to store encryption key: %w", err)
	}
	return password, nil
}

// promptForPassword asks for a new database password on first run.
func promptForPassword() (string, error) {
	fmt.Println()
	fmt.Println("Your client data will be encrypted with a password.")
	fmt.Println("This password will be stored in your macOS keychain.")
	fmt.Println()

	password, err := ReadPassword("Enter a password for database encryption: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	confirm, err := ReadPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("Database encryption configured successfully")
	fmt.Println()
	return password, nil
}

// ReadPassword prints prompt and reads a line without echo.
func ReadPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
