package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/gistda/internhub/internal/observability/metrics"
)

// Task is one maintenance job. It returns how many entries it removed.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Sweeper periodically runs maintenance tasks, such as purging expired
// session revocations
type Sweeper struct {
	tasks    []Task
	logger   *slog.Logger
	interval time.Duration
}

// NewSweeper creates a sweeper that runs tasks every interval
func NewSweeper(interval time.Duration, logger *slog.Logger, tasks ...Task) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{tasks: tasks, logger: logger, interval: interval}
}

// Start runs the loop until ctx is cancelled
func (w *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("sweeper started", slog.Duration("interval", w.interval), slog.Int("tasks", len(w.tasks)))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs every task once. A failing task does not stop the others.
func (w *Sweeper) RunOnce(ctx context.Context) {
	for _, t := range w.tasks {
		if ctx.Err() != nil {
			return
		}
		logger := w.logger.With(slog.String("task", t.Name))
		removed, err := t.Run(ctx)
		if err != nil {
			logger.Error("maintenance task failed", slog.String("error", err.Error()))
			metrics.ObserveSweep(t.Name, "error", 0)
			continue
		}
		if removed > 0 {
			logger.Debug("maintenance task removed entries", slog.Int("removed", removed))
		}
		metrics.ObserveSweep(t.Name, "success", removed)
	}
}
