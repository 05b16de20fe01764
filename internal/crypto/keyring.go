// Package crypto stores the SQLCipher database key outside the database.
package crypto

// Keyring provides secure key storage abstraction
type Keyring interface {
	GetKey() (string, error)
	SetKey(password string) error
	DeleteKey() error
	IsAvailable() bool
}

const (
	ServiceName = "rapport"
	KeyName     = "db-encryption-key"

	// EnvDBKey supplies the key on platforms without a usable keychain.
	EnvDBKey = "RAPPORT_DB_KEY"
)

// NewKeyring returns the best available keyring implementation. The
// environment variable always wins so that scripted runs never prompt.
func NewKeyring() Keyring {
	env := &envKeyring{}
	if env.IsAvailable() {
		return env
	}
	return newPlatformKeyring()
}
