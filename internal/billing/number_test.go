package billing

import (
	"regexp"
	"testing"
	"time"

	ierr "github.com/andy/rapport/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextInvoiceNumber(t *testing.T) {
	day := time.Date(2024, 1, 15, 17, 30, 0, 0, time.Local)

	n, err := NextInvoiceNumber(day, 0)
	require.NoError(t, err)
	assert.Equal(t, "RE-20240115-00001", n)

	n, err = NextInvoiceNumber(day, 41)
	require.NoError(t, err)
	assert.Equal(t, "RE-20240115-00042", n)

	assert.Equal(t, "RE-20240115-", DatePrefix(day))
}

func TestNextInvoiceNumberSequentialIsIncreasing(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^RE-\d{8}-\d{5}$`)

	prev := ""
	for count := 0; count < 250; count++ {
		n, err := NextInvoiceNumber(day, count)
		require.NoError(t, err)
		assert.Regexp(t, pattern, n)
		assert.Greater(t, n, prev)
		prev = n
	}
}

func TestNextInvoiceNumberOverflow(t *testing.T) {
	_, err := NextInvoiceNumber(time.Now(), 99999)
	assert.True(t, ierr.IsConflict(err))
}

func TestParseInvoiceNumber(t *testing.T) {
	day, seq, err := ParseInvoiceNumber("RE-20240115-00042")
	require.NoError(t, err)
	assert.Equal(t, 42, seq)
	assert.Equal(t, "2024-01-15", day.Format("2006-01-02"))

	_, _, err = ParseInvoiceNumber("INV-1")
	assert.True(t, ierr.IsValidation(err))
}
