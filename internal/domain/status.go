package domain

import (
	"fmt"
	"strings"
)

// Status is the terminal disposition of a single row.
type Status string

const (
	StatusSent   Status = "sent"
	StatusDryRun Status = "dry_run"
	StatusSkip   Status = "skip"
	StatusError  Status = "error"
	StatusFailed Status = "failed"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusSent, StatusDryRun, StatusSkip, StatusError, StatusFailed:
		return true
	}
	return false
}

// Delivered reports whether the status counts toward the sent total.
// Dry-run dispositions count as sent for metrics.
func (s Status) Delivered() bool {
	return s == StatusSent || s == StatusDryRun
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}
