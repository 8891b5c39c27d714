// Package scheduler runs the periodic catalog synchronization.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/swfilms/swfilms-go/internal/model"
)

// Syncer performs one synchronization pass.
type Syncer interface {
	SyncFromAPI(ctx context.Context) (model.SyncResponse, error)
}

// Scheduler triggers Syncer on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	syncer  Syncer
	timeout time.Duration
}

// New registers the sync job under spec, which accepts standard five-field
// cron expressions and descriptors such as "@midnight". Overlapping runs
// are skipped rather than queued.
func New(spec string, syncer Syncer, timeout time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{}),
			cron.WithChain(
				cron.Recover(cronLogger{}),
				cron.SkipIfStillRunning(cronLogger{}),
			),
		),
		syncer:  syncer,
		timeout: timeout,
	}

	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}

	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		slog.Info("sync scheduled", "next_run", e.Next)
	}
}

// Stop halts the scheduler and waits for a running job until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("scheduled sync still running at shutdown")
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	resp, err := s.syncer.SyncFromAPI(ctx)
	if err != nil {
		slog.Error("scheduled sync failed", "error", err, "duration_ms", time.Since(started).Milliseconds())
		return
	}

	slog.Info("scheduled sync finished",
		"inserted", resp.Inserted,
		"skipped", resp.Skipped,
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

// cronLogger sends cron's internal logging to the default slog logger.
// Routine scheduler chatter goes to debug.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
