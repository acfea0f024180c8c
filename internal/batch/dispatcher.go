// Package batch orchestrates row processing, rate limiting, outcome logging
// and progress reporting for one batch run, in either a sequential loop or a
// bounded worker pool.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kursadbilgin/wabatch/internal/domain"
	"github.com/kursadbilgin/wabatch/internal/observability"
	"github.com/kursadbilgin/wabatch/internal/outcome"
	"github.com/kursadbilgin/wabatch/internal/progress"
	"github.com/kursadbilgin/wabatch/internal/ratelimit"
)

const pausePoll = 200 * time.Millisecond

// Sender performs the network send for one built payload.
type Sender interface {
	Send(ctx context.Context, payload map[string]any) (map[string]any, error)
}

// RowProcessor turns one row into a verdict.
type RowProcessor interface {
	Process(ctx context.Context, row domain.Row) domain.Verdict
}

// Dispatcher runs batches. One instance may run batches sequentially over its
// lifetime, but never more than one at a time.
type Dispatcher struct {
	processor RowProcessor
	sender    Sender
	limiter   ratelimit.Limiter
	log       *outcome.Log
	logger    *zap.Logger
	metrics   *observability.Metrics
	opts      Options

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(
	processor RowProcessor,
	sender Sender,
	limiter ratelimit.Limiter,
	log *outcome.Log,
	opts Options,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if processor == nil {
		return nil, fmt.Errorf("row processor is required")
	}
	if sender == nil && !opts.DryRun {
		return nil, fmt.Errorf("sender is required unless dry-run")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts = opts.normalized()
	if limiter == nil {
		limiter = ratelimit.NewSlidingWindow(opts.Rate)
	}

	return &Dispatcher{
		processor: processor,
		sender:    sender,
		limiter:   limiter,
		log:       log,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
		sleep:     sleepWithContext,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// tally is the per-run aggregate, guarded by one mutex and shared by every
// worker. The dispatcher owns it for exactly one run.
type tally struct {
	mu      sync.Mutex
	sent    int
	skipped int
	errors  int
	aborted bool
}

func (t *tally) record(status domain.Status) (sent, skipped, errored int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case status.Delivered():
		t.sent++
	case status == domain.StatusSkip:
		t.skipped++
	case status == domain.StatusError:
		t.errors++
	}
	return t.sent, t.skipped, t.errors
}

func (t *tally) abort() {
	t.mu.Lock()
	t.aborted = true
	t.mu.Unlock()
}

func (t *tally) isAborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aborted
}

// Run dispatches every row and returns the final accounting. ctrl may be nil
// when the caller needs neither pause nor cancel. A non-nil error means the
// dispatch harness itself failed; row-level failures only show up in the
// counts.
func (d *Dispatcher) Run(
	ctx context.Context,
	rows []domain.Row,
	observer progress.Observer,
	ctrl *Control,
) (domain.BatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctrl == nil {
		ctrl = NewControl()
	}

	total := d.opts.TotalRows
	if total <= 0 {
		total = len(rows)
	}

	startedAt := d.now()
	reporter := progress.NewReporter(observer, total, d.opts.DryRun, startedAt)
	counts := &tally{}

	logger := observability.WithContextLogger(d.logger, ctx)
	logger.Info("batch started",
		zap.Int("totalRows", total),
		zap.Bool("dryRun", d.opts.DryRun),
		zap.Bool("concurrent", d.opts.Concurrent),
		zap.Int("rate", d.opts.Rate),
		zap.Int("workers", d.opts.Workers),
	)

	var runErr error
	if d.opts.Concurrent {
		runErr = d.runPool(ctx, rows, reporter, ctrl, counts)
	} else {
		runErr = d.runSequential(ctx, rows, reporter, ctrl, counts)
	}

	if err := d.log.Close(); err != nil {
		logger.Warn("failed to close outcome log", zap.Error(err))
	}

	counts.mu.Lock()
	result := domain.BatchResult{
		StartedAt:  startedAt,
		FinishedAt: d.now(),
		TotalRows:  total,
		Processed:  counts.sent + counts.skipped + counts.errors,
		Sent:       counts.sent,
		Skipped:    counts.skipped,
		Errors:     counts.errors,
		DryRun:     d.opts.DryRun,
		Aborted:    counts.aborted,
	}
	counts.mu.Unlock()

	switch {
	case runErr != nil:
		// Harness failure, not a row failure: surface it on the same
		// observer stream before returning.
		reporter.Emit(0, "", domain.StatusFailed, runErr.Error(), result.Sent, result.Skipped, result.Errors)
		d.metrics.IncBatchOutcome("failed")
		logger.Error("batch failed", zap.Error(runErr))
	case result.Aborted:
		d.metrics.IncBatchOutcome("aborted")
		logger.Info("batch aborted", zap.Int("processed", result.Processed))
	default:
		d.metrics.IncBatchOutcome("completed")
		logger.Info("batch completed",
			zap.Int("sent", result.Sent),
			zap.Int("skipped", result.Skipped),
			zap.Int("errors", result.Errors),
			zap.Duration("elapsed", result.Elapsed()),
		)
	}

	return result, runErr
}

func (d *Dispatcher) runSequential(
	ctx context.Context,
	rows []domain.Row,
	reporter *progress.Reporter,
	ctrl *Control,
	counts *tally,
) error {
	for i, row := range rows {
		index := i + 1

		if ctrl.Canceled() {
			counts.abort()
			return nil
		}

		if err := d.waitWhilePaused(ctx, ctrl); err != nil {
			return err
		}
		if ctrl.Canceled() {
			counts.abort()
			return nil
		}

		status, message := d.processOne(ctx, row)
		sent, skipped, errored := counts.record(status)
		d.metrics.IncRowOutcome(status.String())
		reporter.Emit(index, row.Phone, status, message, sent, skipped, errored)

		if status.Delivered() && d.opts.Delay > 0 {
			if err := d.sleep(ctx, d.opts.Delay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Dispatcher) runPool(
	ctx context.Context,
	rows []domain.Row,
	reporter *progress.Reporter,
	ctrl *Control,
	counts *tally,
) error {
	type item struct {
		index int
		row   domain.Row
	}

	// The whole batch is pre-loaded; closing the channel is the drain
	// sentinel for every worker.
	queue := make(chan item, len(rows))
	for i, row := range rows {
		queue <- item{index: i + 1, row: row}
	}
	close(queue)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < d.opts.Workers; w++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("worker panic: %v", r)
				}
			}()

			for it := range queue {
				// Drained after cancellation: not processed, not counted.
				if ctrl.Canceled() {
					counts.abort()
					continue
				}

				if err := d.waitWhilePaused(ctx, ctrl); err != nil {
					return err
				}
				if ctrl.Canceled() {
					counts.abort()
					continue
				}

				d.metrics.IncWorkerInFlight()
				status, message := d.processPooled(ctx, it.row)
				d.metrics.DecWorkerInFlight()

				sent, skipped, errored := counts.record(status)
				d.metrics.IncRowOutcome(status.String())
				reporter.Emit(it.index, it.row.Phone, status, message, sent, skipped, errored)

				if status.Delivered() && d.opts.Delay > 0 {
					if err := d.sleep(ctx, d.opts.Delay); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// processOne handles one row in sequential mode: no rate limiting, the single
// send path is already throttled by the optional delay.
func (d *Dispatcher) processOne(ctx context.Context, row domain.Row) (domain.Status, string) {
	verdict := d.processor.Process(ctx, row)
	switch verdict.Kind {
	case domain.VerdictSkip:
		d.writeLog(outcome.Record{Status: domain.StatusSkip, Reason: verdict.Reason, Row: row.Source})
		return domain.StatusSkip, verdict.Reason
	case domain.VerdictError:
		d.writeLog(outcome.Record{Status: domain.StatusError, Reason: verdict.Reason, Row: row.Source})
		return domain.StatusError, verdict.Reason
	}
	return d.deliver(ctx, verdict.Payload)
}

// processPooled is processOne plus the shared limiter acquisition that makes
// the per-second ceiling global across the pool.
func (d *Dispatcher) processPooled(ctx context.Context, row domain.Row) (domain.Status, string) {
	verdict := d.processor.Process(ctx, row)
	switch verdict.Kind {
	case domain.VerdictSkip:
		d.writeLog(outcome.Record{Status: domain.StatusSkip, Reason: verdict.Reason, Row: row.Source})
		return domain.StatusSkip, verdict.Reason
	case domain.VerdictError:
		d.writeLog(outcome.Record{Status: domain.StatusError, Reason: verdict.Reason, Row: row.Source})
		return domain.StatusError, verdict.Reason
	}

	if err := d.limiter.Acquire(ctx); err != nil {
		message := fmt.Sprintf("send_failed: %v", err)
		d.writeLog(outcome.Record{Status: domain.StatusError, Reason: message, Payload: verdict.Payload})
		return domain.StatusError, message
	}
	return d.deliver(ctx, verdict.Payload)
}

func (d *Dispatcher) deliver(ctx context.Context, payload map[string]any) (domain.Status, string) {
	if d.opts.DryRun {
		d.writeLog(outcome.Record{Status: domain.StatusDryRun, Payload: payload})
		return domain.StatusDryRun, ""
	}

	start := d.now()
	response, err := d.sender.Send(ctx, payload)
	d.metrics.ObserveSendDuration(d.now().Sub(start))

	if err != nil {
		message := fmt.Sprintf("send_failed: %v", err)
		d.writeLog(outcome.Record{Status: domain.StatusError, Reason: message, Payload: payload})
		return domain.StatusError, message
	}

	d.writeLog(outcome.Record{Status: domain.StatusSent, Response: response})
	return domain.StatusSent, ""
}

// waitWhilePaused polls the pause flag, observing cancellation within one
// poll interval.
func (d *Dispatcher) waitWhilePaused(ctx context.Context, ctrl *Control) error {
	for ctrl.Paused() {
		if ctrl.Canceled() {
			return nil
		}
		if err := d.sleep(ctx, pausePoll); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) writeLog(record outcome.Record) {
	if err := d.log.Write(record); err != nil {
		d.logger.Warn("failed to write outcome record", zap.Error(err))
	}
}

func sleepWithContext(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
