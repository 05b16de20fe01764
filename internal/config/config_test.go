package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andy/rapport/internal/billing"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	rate, err := cfg.DefaultRate()
	require.NoError(t, err)
	assert.Equal(t, "120.00", rate.StringFixed(2))

	mode, err := cfg.RoundingMode()
	require.NoError(t, err)
	assert.Equal(t, billing.RoundHalfUp, mode)
	assert.Equal(t, "CH", cfg.Payee.CountryCode)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rapport", "config.yaml")

	cfg := DefaultConfig()
	cfg.Payee.LegalName = "Muster Informatik"
	cfg.Payee.IBAN = "CH9300762011623852957"
	cfg.Billing.Rounding = "half_even"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Payee, loaded.Payee)
	mode, err := loaded.RoundingMode()
	require.NoError(t, err)
	assert.Equal(t, billing.RoundHalfEven, mode)
}

func TestLoadRejectsInvalidBilling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("billing:\n  rounding: ceil\n"), 0600))

	_, err := Load(path)
	assert.True(t, ierr.IsConfiguration(err))

	require.NoError(t, os.WriteFile(path, []byte("billing:\n  default_rate: abc\n"), 0600))
	_, err = Load(path)
	assert.True(t, ierr.IsConfiguration(err))
}

func TestDefaultConfigPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", DefaultConfigPath())
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "db", "rapport.db")
	cfg.Invoice.OutputDir = filepath.Join(dir, "out")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, filepath.Join(dir, "db"))
	assert.DirExists(t, filepath.Join(dir, "out"))
}
