package crypto

import (
	"os"

	ierr "github.com/andy/rapport/internal/errors"
)

// envKeyring reads the key from RAPPORT_DB_KEY. It cannot persist a key.
type envKeyring struct{}

func (k *envKeyring) GetKey() (string, error) {
	key := os.Getenv(EnvDBKey)
	if key == "" {
		return "", ierr.NewErrorf("%s environment variable not set", EnvDBKey).
			WithHintf("Datenbankschlüssel fehlt: %s setzen", EnvDBKey).
			Mark(ierr.ErrConfiguration)
	}
	return key, nil
}

func (k *envKeyring) SetKey(password string) error {
	if password == "" {
		return ierr.NewError("password cannot be empty").Mark(ierr.ErrValidation)
	}
	return ierr.NewErrorf("keyring not available on this platform: set %s to persist the key", EnvDBKey).
		WithHintf("%s in der Umgebung oder in .env setzen", EnvDBKey).
		Mark(ierr.ErrConfiguration)
}

func (k *envKeyring) DeleteKey() error {
	return ierr.NewErrorf("keyring not available on this platform: unset %s manually", EnvDBKey).
		Mark(ierr.ErrConfiguration)
}

func (k *envKeyring) IsAvailable() bool {
	return os.Getenv(EnvDBKey) != ""
}
