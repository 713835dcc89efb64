package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgerline/billpipe/internal/async"
	"github.com/ledgerline/billpipe/internal/repository"
)

// Sweeper re-queues documents stuck in processing longer than the lease,
// so a crashed worker never strands a document forever.
type Sweeper struct {
	docs     repository.DocumentRepository
	queue    async.Queue
	lease    time.Duration
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(docs repository.DocumentRepository, queue async.Queue, lease, interval time.Duration, logger *slog.Logger) *Sweeper {
	if lease <= 0 {
		lease = 10 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{docs: docs, queue: queue, lease: lease, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce resets stale documents and re-enqueues them.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	ids, err := s.docs.SweepStale(ctx, s.lease)
	if err != nil {
		s.logger.Error("stale sweep failed", "error", err)
		return
	}
	for _, id := range ids {
		s.logger.Warn("re-queueing stale document", "document_id", id, "lease", s.lease)
		_ = s.queue.Enqueue(ctx, async.Job{DocumentID: id, Force: true, SubmittedAt: time.Now()})
	}
}
