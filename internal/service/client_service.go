package service

import (
	"context"
	"strings"

	"github.com/andy/rapport/internal/address"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/logger"
	"github.com/andy/rapport/internal/repository"
	"github.com/andy/rapport/internal/validator"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ClientInput carries the editable client fields. Structured address fields
// take precedence; AddressText is parsed only when they are all blank.
type ClientInput struct {
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"omitempty,email"`
	Phone            string `json:"phone"`
	ITInfrastructure string `json:"it_infrastructure"`
	HourlyRate       string `json:"hourly_rate"`
	Street           string `json:"street"`
	HouseNumber      string `json:"house_number"`
	PostalCode       string `json:"postal_code"`
	City             string `json:"city"`
	AddressText      string `json:"address_text"`
}

func (in ClientInput) addressSource() address.Source {
	s := address.Structured{
		Street:      strings.TrimSpace(in.Street),
		HouseNumber: strings.TrimSpace(in.HouseNumber),
		PostalCode:  strings.TrimSpace(in.PostalCode),
		City:        strings.TrimSpace(in.City),
	}
	if s.IsEmpty() && strings.TrimSpace(in.AddressText) != "" {
		return address.Raw(in.AddressText)
	}
	return s
}

// LoginInput carries device credential fields.
type LoginInput struct {
	DeviceType  string `json:"device_type" validate:"required"`
	Description string `json:"description"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

// AddressMigration reports the outcome for one migrated client.
type AddressMigration struct {
	ClientID int64
	Name     string
	Legacy   string
	Address  address.Structured
	// Complete is false when postal code or city could not be recognized.
	Complete bool
}

// ClientService manages clients and their device logins
type ClientService interface {
	Create(ctx context.Context, in ClientInput) (*domain.Client, error)
	Update(ctx context.Context, id int64, in ClientInput) (*domain.Client, error)
	Get(ctx context.Context, id int64) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)

	// MigrateAddresses fills the structured address of every client that
	// only has legacy free text.
	MigrateAddresses(ctx context.Context) ([]AddressMigration, error)

	AddLogin(ctx context.Context, clientID int64, in LoginInput) (*domain.DeviceLogin, error)
	UpdateLogin(ctx context.Context, id int64, in LoginInput) (*domain.DeviceLogin, error)
	ListLogins(ctx context.Context, clientID int64) ([]*domain.DeviceLogin, error)
}

type clientService struct {
	clientRepo  repository.ClientRepository
	loginRepo   repository.LoginRepository
	defaultRate decimal.Decimal
	log         zerolog.Logger
}

// NewClientService creates a new client service
func NewClientService(
	clientRepo repository.ClientRepository,
	loginRepo repository.LoginRepository,
	defaultRate decimal.Decimal,
) ClientService {
	return &clientService{
		clientRepo:  clientRepo,
		loginRepo:   loginRepo,
		defaultRate: defaultRate,
		log:         logger.WithComponent("client-service"),
	}
}

func (s *clientService) Create(ctx context.Context, in ClientInput) (*domain.Client, error) {
	if err := validator.ValidateRequest(in); err != nil {
		return nil, err
	}
	rate, err := s.parseRate(in.HourlyRate)
	if err != nil {
		return nil, err
	}

	client := domain.NewClient(in.Name, rate)
	applyClientInput(client, in)

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) Update(ctx context.Context, id int64, in ClientInput) (*domain.Client, error) {
	if err := validator.ValidateRequest(in); err != nil {
		return nil, err
	}
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rate := client.HourlyRate
	if strings.TrimSpace(in.HourlyRate) != "" {
		if rate, err = s.parseRate(in.HourlyRate); err != nil {
			return nil, err
		}
	}

	client.Name = strings.TrimSpace(in.Name)
	client.HourlyRate = rate
	applyClientInput(client, in)

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func applyClientInput(client *domain.Client, in ClientInput) {
	client.Email = strings.TrimSpace(in.Email)
	client.Phone = strings.TrimSpace(in.Phone)
	client.ITInfrastructure = in.ITInfrastructure
	client.SetAddress(in.addressSource())
}

func (s *clientService) parseRate(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.defaultRate, nil
	}
	rate, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil || rate.IsNegative() {
		return decimal.Zero, ierr.NewErrorf("invalid hourly rate %q", raw).
			WithHint("Stundenansatz muss ein Betrag >= 0 sein").
			Mark(ierr.ErrValidation)
	}
	return rate.Round(2), nil
}

func (s *clientService) Get(ctx context.Context, id int64) (*domain.Client, error) {
	return s.clientRepo.GetByID(ctx, id)
}

func (s *clientService) List(ctx context.Context) ([]*domain.Client, error) {
	return s.clientRepo.List(ctx)
}

func (s *clientService) MigrateAddresses(ctx context.Context) ([]AddressMigration, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var report []AddressMigration
	for _, client := range clients {
		if !client.NeedsAddressMigration() {
			continue
		}
		legacy := *client.LegacyAddress
		client.SetAddress(address.Raw(legacy))
		if err := s.clientRepo.Update(ctx, client); err != nil {
			return report, err
		}

		m := AddressMigration{
			ClientID: client.ID,
			Name:     client.Name,
			Legacy:   legacy,
			Address:  client.Address,
			Complete: client.Address.PostalCode != "" && client.Address.City != "",
		}
		s.log.Info().
			Int64("client_id", client.ID).
			Bool("complete", m.Complete).
			Msg("migrated legacy address")
		report = append(report, m)
	}
	return report, nil
}

func (s *clientService) AddLogin(ctx context.Context, clientID int64, in LoginInput) (*domain.DeviceLogin, error) {
	if err := validator.ValidateRequest(in); err != nil {
		return nil, err
	}
	if _, err := s.clientRepo.GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	login := &domain.DeviceLogin{
		ClientID:    clientID,
		DeviceType:  strings.TrimSpace(in.DeviceType),
		Description: in.Description,
		Username:    in.Username,
		Password:    in.Password,
	}
	if err := s.loginRepo.Create(ctx, login); err != nil {
		return nil, err
	}
	return login, nil
}

func (s *clientService) UpdateLogin(ctx context.Context, id int64, in LoginInput) (*domain.DeviceLogin, error) {
	if err := validator.ValidateRequest(in); err != nil {
		return nil, err
	}
	login, err := s.loginRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	login.DeviceType = strings.TrimSpace(in.DeviceType)
	login.Description = in.Description
	login.Username = in.Username
	login.Password = in.Password
	if err := s.loginRepo.Update(ctx, login); err != nil {
		return nil, err
	}
	return login, nil
}

func (s *clientService) ListLogins(ctx context.Context, clientID int64) ([]*domain.DeviceLogin, error) {
	if _, err := s.clientRepo.GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	return s.loginRepo.ListByClient(ctx, clientID)
}
