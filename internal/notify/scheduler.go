package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler fires the due-soon notifier on a fixed interval. It only reads
// from the store, so it never contends with request-driven task mutations.
type Scheduler struct {
	notifier *DueSoonNotifier
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewScheduler creates a Scheduler that runs the notifier every interval.
// An interval of zero defaults to 24 hours.
func NewScheduler(notifier *DueSoonNotifier, interval time.Duration, logger *slog.Logger) *Scheduler {
	if notifier == nil {
		panic("notifier cannot be nil")
	}

	if interval <= 0 {
		interval = 24 * time.Hour
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		notifier: notifier,
		interval: interval,
		logger:   logger.With(slog.String("component", "notify_scheduler")),
	}
}

// Start launches the scheduling loop in a background goroutine.
// The loop stops when Stop is called or the given context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("notification scheduler started",
			slog.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				// Failures are already captured and logged per task inside
				// Run; only a failed store query surfaces here.
				if _, err := s.notifier.Run(ctx); err != nil {
					s.logger.Error("notification run failed",
						slog.String("error", err.Error()))
				}
			case <-ctx.Done():
				s.logger.Info("notification scheduler stopping")
				return
			}
		}
	}()
}

// Stop halts the scheduling loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
