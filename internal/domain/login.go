package domain

import (
	"strings"
	"time"

	ierr "github.com/andy/rapport/internal/errors"
)

// DeviceLogin is a credential for a device or service at a client's site.
type DeviceLogin struct {
	ID          int64
	ClientID    int64
	DeviceType  string
	Description string
	Username    string
	Password    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (l *DeviceLogin) Validate() error {
	if l.ClientID <= 0 {
		return ierr.NewError("client ID is required").Mark(ierr.ErrValidation)
	}
	if strings.TrimSpace(l.DeviceType) == "" {
		return ierr.NewError("device type is required").
			WithHint("Gerätetyp ist erforderlich").
			Mark(ierr.ErrValidation)
	}
	return nil
}
