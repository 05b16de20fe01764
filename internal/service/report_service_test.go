package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/repository"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportListAndTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	a := f.client(t, ClientInput{Name: "Alpha"})
	b := f.client(t, ClientInput{Name: "Beta"})

	f.entry(t, a.ID, 30, "")
	paid := f.entry(t, a.ID, 60, "")
	f.entry(t, b.ID, 90, "")
	_, err := f.entrySvc.MarkPaid(ctx, paid.ID, "Bar")
	require.NoError(t, err)

	report, err := f.reportSvc.List(ctx, repository.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 3)
	assert.Equal(t, 180, report.Totals.Minutes)
	assert.Equal(t, "360.00", report.Totals.Cost.StringFixed(2))
	assert.Equal(t, "240.00", report.Totals.OpenCost.StringFixed(2))

	report, err = f.reportSvc.List(ctx, repository.EntryFilter{ClientID: &a.ID, Paid: lo.ToPtr(false)})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "Alpha", report.Rows[0].Client)
}

func TestReportExports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	a := f.client(t, ClientInput{Name: "Alpha"})
	f.entry(t, a.ID, 30, "")

	var csvBuf bytes.Buffer
	require.NoError(t, f.reportSvc.ExportCSV(ctx, &csvBuf, repository.EntryFilter{}))
	lines := strings.Split(strings.TrimSpace(csvBuf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "15.01.2024;Alpha;Netzwerk;30;60.00;Nein;", lines[1])

	var pdfBuf bytes.Buffer
	require.NoError(t, f.reportSvc.ExportPDF(ctx, &pdfBuf, repository.EntryFilter{}))
	assert.True(t, bytes.HasPrefix(pdfBuf.Bytes(), []byte("%PDF-")))
}

func TestParsePaidFilter(t *testing.T) {
	v, err := ParsePaidFilter("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParsePaidFilter("1")
	require.NoError(t, err)
	assert.True(t, *v)

	v, err = ParsePaidFilter("Nein")
	require.NoError(t, err)
	assert.False(t, *v)

	_, err = ParsePaidFilter("vielleicht")
	assert.True(t, ierr.IsValidation(err))
}
