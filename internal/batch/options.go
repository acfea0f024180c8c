package batch

import "time"

const (
	// ProviderMaxRate is the Cloud API ceiling on messages per second.
	ProviderMaxRate = 80

	minWorkers = 1
	maxWorkers = 32
)

// Options are the launch parameters for one batch run.
type Options struct {
	// DryRun builds and logs payloads without any network send.
	DryRun bool

	// Delay is an optional fixed pause after each successful send.
	Delay time.Duration

	// Rate is the target send ceiling in messages per second. Clamped to
	// [1, ProviderMaxRate].
	Rate int

	// Workers is the pool size for concurrent mode. Zero derives the size
	// from Rate.
	Workers int

	// Concurrent selects the worker-pool mode instead of the sequential loop.
	Concurrent bool

	// TotalRows overrides the total used in progress snapshots; zero means
	// use the input length.
	TotalRows int
}

func (o Options) normalized() Options {
	if o.Rate < 1 {
		o.Rate = 1
	}
	if o.Rate > ProviderMaxRate {
		o.Rate = ProviderMaxRate
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	if o.Workers <= 0 {
		o.Workers = o.Rate / 4
	}
	if o.Workers < minWorkers {
		o.Workers = minWorkers
	}
	if o.Workers > maxWorkers {
		o.Workers = maxWorkers
	}
	return o
}
