package domain

import "time"

// ProgressSnapshot is an immutable view of batch progress after one row event.
type ProgressSnapshot struct {
	Index     int       `json:"index"`
	Phone     string    `json:"phone"`
	Status    Status    `json:"status"`
	Sent      int       `json:"sent"`
	Skipped   int       `json:"skipped"`
	Errors    int       `json:"errors"`
	DryRun    bool      `json:"dryRun"`
	Total     int       `json:"total"`
	StartedAt time.Time `json:"startedAt"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
}

func (p ProgressSnapshot) Processed() int {
	return p.Sent + p.Skipped + p.Errors
}

func (p ProgressSnapshot) Elapsed() time.Duration {
	if p.Timestamp.Before(p.StartedAt) {
		return 0
	}
	return p.Timestamp.Sub(p.StartedAt)
}

// Rate returns sent messages per second over the elapsed window.
func (p ProgressSnapshot) Rate() float64 {
	elapsed := p.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.Sent) / elapsed
}

// BatchResult is the final accounting of one batch run.
// Sent+Skipped+Errors <= TotalRows always; equality holds unless Aborted.
type BatchResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	TotalRows  int
	Processed  int
	Sent       int
	Skipped    int
	Errors     int
	DryRun     bool
	Aborted    bool
}

func (r BatchResult) Elapsed() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r BatchResult) Rate() float64 {
	elapsed := r.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(r.Sent) / elapsed
}
