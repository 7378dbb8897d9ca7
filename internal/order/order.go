// Package order implements the order-intake wizard bot: a linear per-user
// form (nick, IGG registration numbers, license term, payment, receipt)
// whose completed requests are forwarded to the admin chat and persisted.
package order

import (
	"strings"
	"time"
)

// Order is one completed purchase request.
type Order struct {
	ID          int64
	UserID      int64
	Username    string
	FullName    string
	Name        string
	RegNumbers  []string
	LicenseTerm string
	Paid        bool
	ReceiptName string
	CreatedAt   time.Time
}

// splitRegNumbers splits an IGG list by comma/space/newline and removes
// empties.
func splitRegNumbers(raw string) []string {
	raw = strings.ReplaceAll(raw, "\n", ",")
	raw = strings.ReplaceAll(raw, " ", ",")
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
