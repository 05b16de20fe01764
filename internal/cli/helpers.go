package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/repository"
	"github.com/andy/rapport/internal/service"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// parseDate parses YYYY-MM-DD, 'today' or 'yesterday' as a local date
func parseDate(s string) (time.Time, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today", "heute":
		return today, nil
	case "yesterday", "gestern":
		return today.AddDate(0, 0, -1), nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, ierr.NewErrorf("invalid date %q", s).
			WithHint("Datum im Format YYYY-MM-DD, 'today' oder 'yesterday'").
			Mark(ierr.ErrValidation)
	}
	return t, nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ierr.NewErrorf("invalid %s ID %q", what, s).
			WithHintf("Ungültige ID: %s", s).
			Mark(ierr.ErrValidation)
	}
	return id, nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func chf(d decimal.Decimal) string {
	return "CHF " + d.StringFixed(2)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("client", 0, "Filter by client ID")
	cmd.Flags().String("from", "", "Only entries on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Only entries on or before this date (YYYY-MM-DD)")
	cmd.Flags().String("paid", "", "Filter by payment: 1 (paid) or 0 (open)")
}

func filterFromFlags(cmd *cobra.Command) (repository.EntryFilter, error) {
	var f repository.EntryFilter
	if cmd.Flags().Changed("client") {
		id, _ := cmd.Flags().GetInt64("client")
		f.ClientID = &id
	}
	for name, target := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		raw, _ := cmd.Flags().GetString(name)
		d, err := parseDate(raw)
		if err != nil {
			return f, err
		}
		*target = &d
	}
	raw, _ := cmd.Flags().GetString("paid")
	paid, err := service.ParsePaidFilter(raw)
	if err != nil {
		return f, err
	}
	f.Paid = paid
	return f, nil
}

func describeFilter(f repository.EntryFilter) string {
	var parts []string
	if f.ClientID != nil {
		parts = append(parts, fmt.Sprintf("client %d", *f.ClientID))
	}
	if f.From != nil {
		parts = append(parts, "from "+f.From.Format(domain.DateLayout))
	}
	if f.To != nil {
		parts = append(parts, "to "+f.To.Format(domain.DateLayout))
	}
	if f.Paid != nil {
		parts = append(parts, lo.Ternary(*f.Paid, "paid", "open"))
	}
	return strings.Join(parts, ", ")
}
