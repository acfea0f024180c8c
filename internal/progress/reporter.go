// Package progress emits per-row snapshots of a running batch to an observer.
package progress

import (
	"time"

	"github.com/kursadbilgin/wabatch/internal/domain"
)

// Observer receives progress snapshots. It must not block the dispatcher
// materially; observers that fan out to slow consumers should buffer or drop.
type Observer func(domain.ProgressSnapshot)

// Reporter builds one snapshot per row event from the dispatcher's counters.
// With no observer registered it emits nothing.
type Reporter struct {
	observer  Observer
	total     int
	dryRun    bool
	startedAt time.Time
	now       func() time.Time
}

func NewReporter(observer Observer, total int, dryRun bool, startedAt time.Time) *Reporter {
	return &Reporter{
		observer:  observer,
		total:     total,
		dryRun:    dryRun,
		startedAt: startedAt,
		now:       time.Now,
	}
}

// Emit constructs a snapshot from the current totals and hands it to the
// observer. Fire-and-forget: errors or slow observers are the observer's
// problem.
func (r *Reporter) Emit(index int, phone string, status domain.Status, message string, sent, skipped, errored int) {
	if r == nil || r.observer == nil {
		return
	}

	r.observer(domain.ProgressSnapshot{
		Index:     index,
		Phone:     phone,
		Status:    status,
		Sent:      sent,
		Skipped:   skipped,
		Errors:    errored,
		DryRun:    r.dryRun,
		Total:     r.total,
		StartedAt: r.startedAt,
		Timestamp: r.now(),
		Message:   message,
	})
}

// ChannelObserver forwards snapshots to ch without ever blocking: when the
// channel is full the snapshot is dropped, keeping the dispatcher unhindered.
func ChannelObserver(ch chan<- domain.ProgressSnapshot) Observer {
	return func(snap domain.ProgressSnapshot) {
		select {
		case ch <- snap:
		default:
		}
	}
}

// MultiObserver fans one snapshot out to several observers in order.
func MultiObserver(observers ...Observer) Observer {
	return func(snap domain.ProgressSnapshot) {
		for _, obs := range observers {
			if obs != nil {
				obs(snap)
			}
		}
	}
}
