package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invoicestudio/backend/internal/invoice/domain"
	"github.com/invoicestudio/backend/internal/invoice/lifecycle"
)

// trackedField is one entry of the fixed set of fields the edit history
// watches. The declaration order below is the order labels appear in entry
// summaries, so it must not be reordered.
type trackedField struct {
	label string
	value func(inv *domain.Invoice) any
}

var trackedFields = []trackedField{
	{"Invoice #", func(inv *domain.Invoice) any { return inv.InvoiceNumber }},
	{"Due date", func(inv *domain.Invoice) any { return dateOnly(inv.DueDate) }},
	{"Issue date", func(inv *domain.Invoice) any { return dateOnly(inv.IssueDate) }},
	{"Total", func(inv *domain.Invoice) any { return inv.Total }},
	{"Subtotal", func(inv *domain.Invoice) any { return inv.Subtotal }},
	{"Discount", func(inv *domain.Invoice) any { return inv.Discount }},
	{"Additional charges", func(inv *domain.Invoice) any { return inv.AdditionalCharges }},
	{"Tax", func(inv *domain.Invoice) any { return inv.TaxTotal }},
	{"Client", func(inv *domain.Invoice) any { return inv.ClientID.String() }},
	{"Items", func(inv *domain.Invoice) any { return len(inv.ItemIDs) }},
	{"Status", func(inv *domain.Invoice) any { return lifecycle.NormalizeStatus(inv.Status) }},
}

func dateOnly(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// diffInvoices compares the tracked fields of two invoice states and returns
// the changes keyed by label plus the changed labels in declaration order.
func diffInvoices(before, after *domain.Invoice) (map[string]domain.FieldChange, []string) {
	diff := make(map[string]domain.FieldChange)
	var labels []string

	for _, f := range trackedFields {
		from, to := f.value(before), f.value(after)
		if from == to {
			continue
		}
		diff[f.label] = domain.FieldChange{From: from, To: to}
		labels = append(labels, f.label)
	}
	return diff, labels
}

// recordHistory appends an edit entry and bumps the version when any tracked
// field changed. It mutates next in place and reports whether an entry was
// written.
func recordHistory(prev, next *domain.Invoice, actor snowflake.ID, now time.Time) bool {
	diff, labels := diffInvoices(prev, next)
	if len(labels) == 0 {
		return false
	}

	next.Version = prev.Version + 1
	next.History = append(next.History, domain.HistoryEntry{
		Version:   next.Version,
		ChangedAt: now,
		ChangedBy: actor,
		Summary:   fmt.Sprintf("Updated: %s", strings.Join(labels, ", ")),
		Diff:      diff,
	})
	return true
}
