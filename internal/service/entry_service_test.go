package service

import (
	"context"
	"testing"
	"time"

	"github.com/andy/rapport/internal/billing"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryCreateComputesCost(t *testing.T) {
	f := newFixture(t, testPayee())
	c := f.client(t, ClientInput{Name: "A", HourlyRate: "95.50"})

	e := f.entry(t, c.ID, 10, "")
	require.True(t, e.Cost.Valid)
	assert.Equal(t, "15.92", e.Cost.Decimal.StringFixed(2))
	assert.Equal(t, 0, e.Date.Hour())

	e = f.entry(t, c.ID, 10, "12.345")
	assert.Equal(t, "12.345", e.Cost.Decimal.String())
}

func TestEntryCreateHalfEven(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	c := f.client(t, ClientInput{Name: "A", HourlyRate: "0.30"})

	svc := NewEntryService(f.entries, f.clients, billing.RoundHalfEven)
	e, err := svc.Create(ctx, EntryInput{ClientID: c.ID, Date: issueDay, DurationMinutes: 1, Topic: "x"})
	require.NoError(t, err)
	assert.Equal(t, "0.00", e.Cost.Decimal.StringFixed(2))
}

func TestEntryCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	c := f.client(t, zurichClient())

	tests := []struct {
		name string
		in   EntryInput
	}{
		{"zero duration", EntryInput{ClientID: c.ID, Date: issueDay, Topic: "x"}},
		{"missing topic", EntryInput{ClientID: c.ID, Date: issueDay, DurationMinutes: 5}},
		{"missing date", EntryInput{ClientID: c.ID, DurationMinutes: 5, Topic: "x"}},
		{"paid without method", EntryInput{ClientID: c.ID, Date: issueDay, DurationMinutes: 5, Topic: "x", Paid: true}},
		{"bad override", EntryInput{ClientID: c.ID, Date: issueDay, DurationMinutes: 5, Topic: "x", CostOverride: "zehn"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.entrySvc.Create(ctx, tt.in)
			assert.True(t, ierr.IsValidation(err), "got %v", err)
		})
	}

	_, err := f.entrySvc.Create(ctx, EntryInput{ClientID: 999, Date: issueDay, DurationMinutes: 5, Topic: "x"})
	assert.True(t, ierr.IsNotFound(err))
}

func TestEntryUpdateRecomputes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	c := f.client(t, zurichClient())
	e := f.entry(t, c.ID, 30, "")
	assert.Equal(t, "60.00", e.Cost.Decimal.StringFixed(2))

	updated, err := f.entrySvc.Update(ctx, e.ID, EntryInput{
		ClientID: c.ID, Date: issueDay.AddDate(0, 0, 1), DurationMinutes: 90, Topic: "Server",
		Paid: true, PaymentMethod: "Bar",
	})
	require.NoError(t, err)
	assert.Equal(t, "180.00", updated.Cost.Decimal.StringFixed(2))
	assert.True(t, updated.IsPaid)

	updated, err = f.entrySvc.Update(ctx, e.ID, EntryInput{
		ClientID: c.ID, Date: issueDay, DurationMinutes: 90, Topic: "Server", PaymentMethod: "Bar",
	})
	require.NoError(t, err)
	assert.False(t, updated.IsPaid)
	assert.Empty(t, updated.PaymentMethod)
}

func TestEntryMarkPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	c := f.client(t, zurichClient())
	e := f.entry(t, c.ID, 30, "")

	_, err := f.entrySvc.MarkPaid(ctx, e.ID, " ")
	assert.True(t, ierr.IsValidation(err))

	paid, err := f.entrySvc.MarkPaid(ctx, e.ID, "Twint")
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	got, err := f.entrySvc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Twint", got.PaymentMethod)
}

func TestDateOnly(t *testing.T) {
	d := dateOnly(time.Date(2024, 5, 6, 23, 59, 0, 0, time.Local))
	assert.Equal(t, "2024-05-06 00:00", d.Format("2006-01-02 15:04"))
}
