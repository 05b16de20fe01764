package tui

import (
	"fmt"

	ierr "github.com/andy/rapport/internal/errors"
	"github.com/shopspring/decimal"
)

// formatMinutes formats minutes as "Xh Ym"
func formatMinutes(minutes int) string {
	h, m := minutes/60, minutes%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// formatMoney formats an amount as "CHF 1'234.50"
func formatMoney(amount decimal.Decimal) string {
	prefix := "CHF "
	if amount.IsNegative() {
		prefix = "-CHF "
		amount = amount.Neg()
	}

	s := amount.StringFixed(2)
	dotPos := len(s) - 3
	intPart, decPart := s[:dotPos], s[dotPos:]

	result := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, '\'')
		}
		result = append(result, intPart[i])
	}
	return prefix + string(result) + decPart
}

// truncateStr truncates a string to the specified length with ellipsis
func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// errText renders the user-facing part of err.
func errText(err error) string {
	return errStyle.Render("Error: " + ierr.DisplayMessage(err))
}

// moveCursor keeps cursor within n items and the window [offset, offset+visible).
func moveCursor(cursor, offset, delta, n, visible int) (int, int) {
	cursor += delta
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	return cursor, offset
}
