package cli

import (
	"testing"
	"time"

	"github.com/andy/rapport/internal/address"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), d)

	today, err := parseDate("today")
	require.NoError(t, err)
	yesterday, err := parseDate("gestern")
	require.NoError(t, err)
	assert.Equal(t, today.AddDate(0, 0, -1), yesterday)
	assert.Equal(t, 0, today.Hour())

	_, err = parseDate("01.03.2024")
	assert.True(t, ierr.IsValidation(err))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "kurz", truncate("kurz", 10))
	assert.Equal(t, "Zürich ...", truncate("Zürich Seefeld", 10))
}

func TestFilterFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addFilterFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--client", "3", "--from", "2024-01-01", "--paid", "0"}))

	f, err := filterFromFlags(cmd)
	require.NoError(t, err)
	require.NotNil(t, f.ClientID)
	assert.Equal(t, int64(3), *f.ClientID)
	require.NotNil(t, f.From)
	assert.Nil(t, f.To)
	require.NotNil(t, f.Paid)
	assert.False(t, *f.Paid)
	assert.Equal(t, "client 3, from 2024-01-01, open", describeFilter(f))

	cmd = &cobra.Command{Use: "x"}
	addFilterFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--paid", "kaputt"}))
	_, err = filterFromFlags(cmd)
	assert.True(t, ierr.IsValidation(err))
}

func TestClientEditKeepsUnchangedFields(t *testing.T) {
	c := domain.NewClient("Beispiel AG", decimal.NewFromInt(130))
	c.Email = "info@beispiel.ch"
	c.Address = address.Structured{Street: "Seestrasse", HouseNumber: "10", PostalCode: "8001", City: "Zürich"}

	cmd := &cobra.Command{Use: "edit"}
	addClientFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--city", "Bern", "--phone", "031 000 00 00"}))

	in := clientInputFrom(c)
	applyClientFlags(cmd, &in)
	assert.Equal(t, "info@beispiel.ch", in.Email)
	assert.Equal(t, "031 000 00 00", in.Phone)
	assert.Equal(t, "130", in.HourlyRate)
	assert.Equal(t, "Seestrasse", in.Street)
	assert.Equal(t, "Bern", in.City)
}

func TestAddressFlagReplacesStructuredFields(t *testing.T) {
	cmd := &cobra.Command{Use: "add"}
	addClientFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--street", "Alt", "--address", `Hauptgasse 3\n3000 Bern`}))

	in := service.ClientInput{Name: "A"}
	applyClientFlags(cmd, &in)
	assert.Empty(t, in.Street)
	assert.Equal(t, "Hauptgasse 3\n3000 Bern", in.AddressText)
}

func TestHashPassword(t *testing.T) {
	_, err := hashPassword("", "")
	assert.True(t, ierr.IsValidation(err))
	_, err = hashPassword("a", "b")
	assert.True(t, ierr.IsValidation(err))

	hash, err := hashPassword("geheim", "geheim")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("geheim")))
}
