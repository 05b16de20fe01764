package crypto

import (
	"testing"

	ierr "github.com/andy/rapport/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKeyringWins(t *testing.T) {
	t.Setenv(EnvDBKey, "geheim")

	kr := NewKeyring()
	require.True(t, kr.IsAvailable())
	key, err := kr.GetKey()
	require.NoError(t, err)
	assert.Equal(t, "geheim", key)
}

func TestEnvKeyringMissing(t *testing.T) {
	t.Setenv(EnvDBKey, "")

	kr := &envKeyring{}
	assert.False(t, kr.IsAvailable())
	_, err := kr.GetKey()
	assert.True(t, ierr.IsConfiguration(err))

	assert.True(t, ierr.IsValidation(kr.SetKey("")))
	assert.True(t, ierr.IsConfiguration(kr.SetKey("x")))
	assert.Error(t, kr.DeleteKey())
}
