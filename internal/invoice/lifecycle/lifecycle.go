// Package lifecycle derives display status and risk labels from an invoice's
// raw status and dates. The classification is pure and shared verbatim by the
// dashboard rollup, the detail view and reporting; call sites must not
// re-implement any part of it.
package lifecycle

import (
	"strings"
	"time"
)

const msPerDay = 24 * 60 * 60 * 1000

const (
	StatusDraft   = "draft"
	StatusSent    = "sent"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
)

const (
	LabelStaleDraft = "Stale draft"
	LabelDueSoon    = "Due soon"
	LabelOverdue    = "Overdue"
)

type Options struct {
	StaleDraftDays int
	DueSoonDays    int
}

func DefaultOptions() Options {
	return Options{StaleDraftDays: 14, DueSoonDays: 7}
}

type Flags struct {
	IsDraft      bool `json:"isDraft"`
	IsPaid       bool `json:"isPaid"`
	IsOverdue    bool `json:"isOverdue"`
	IsDueSoon    bool `json:"isDueSoon"`
	IsStaleDraft bool `json:"isStaleDraft"`
}

type Classification struct {
	Status         string   `json:"status"`
	ComputedStatus string   `json:"computedStatus"`
	Labels         []string `json:"labels"`
	Flags          Flags    `json:"flags"`
	// AgeDays is whole days since the issue date, floor division; zero when
	// the issue date is unset.
	AgeDays int64 `json:"ageDays"`
}

// NormalizeStatus lowercases a stored status and folds the legacy "pending"
// alias into "draft". Unknown values pass through lowercased.
func NormalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "pending" {
		return StatusDraft
	}
	return s
}

// IsDraft reports whether a raw status normalizes to draft.
func IsDraft(raw string) bool { return NormalizeStatus(raw) == StatusDraft }

// IsSent reports whether a raw status normalizes to sent.
func IsSent(raw string) bool { return NormalizeStatus(raw) == StatusSent }

// IsPaid reports whether a raw status normalizes to paid.
func IsPaid(raw string) bool { return NormalizeStatus(raw) == StatusPaid }

// Classify computes the display lifecycle for an invoice at instant now.
// issueDate and dueDate use the zero time for "unset".
func Classify(status string, issueDate, dueDate, now time.Time, opts Options) Classification {
	if opts.StaleDraftDays <= 0 {
		opts.StaleDraftDays = DefaultOptions().StaleDraftDays
	}
	if opts.DueSoonDays <= 0 {
		opts.DueSoonDays = DefaultOptions().DueSoonDays
	}

	normalized := NormalizeStatus(status)
	isPaid := normalized == StatusPaid
	isDraft := normalized == StatusDraft

	hasDue := !dueDate.IsZero()
	hasIssue := !issueDate.IsZero()

	isOverdue := !isPaid && hasDue && dueDate.Before(now)
	isDueSoon := !isPaid && hasDue &&
		!dueDate.Before(now) &&
		!dueDate.After(now.Add(time.Duration(opts.DueSoonDays)*24*time.Hour))

	var ageDays int64
	if hasIssue {
		ageDays = now.Sub(issueDate).Milliseconds() / msPerDay
	}
	isStaleDraft := isDraft && hasIssue &&
		now.Sub(issueDate).Milliseconds() >= int64(opts.StaleDraftDays)*msPerDay

	computed := normalized
	if isOverdue {
		computed = StatusOverdue
	}

	// Label order is fixed; badges and icons depend on it.
	labels := make([]string, 0, 3)
	if isStaleDraft {
		labels = append(labels, LabelStaleDraft)
	}
	if isDueSoon {
		labels = append(labels, LabelDueSoon)
	}
	if isOverdue {
		labels = append(labels, LabelOverdue)
	}

	return Classification{
		Status:         normalized,
		ComputedStatus: computed,
		Labels:         labels,
		Flags: Flags{
			IsDraft:      isDraft,
			IsPaid:       isPaid,
			IsOverdue:    isOverdue,
			IsDueSoon:    isDueSoon,
			IsStaleDraft: isStaleDraft,
		},
		AgeDays: ageDays,
	}
}
