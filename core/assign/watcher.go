package assign

import (
	"context"
	"time"

	"github.com/gep-platform/assignd/core/logger"
)

// TimeoutWatcher periodically scans proposed assignments and expires those
// past their response deadline. It backs up the per-assignment deadline
// timers: a missed or lost timer is caught by the next scan, so expiry is
// detected at most one interval after the deadline.
type TimeoutWatcher struct {
	manager  *Manager
	interval time.Duration
	logger   logger.Logger
	now      func() time.Time
}

// NewTimeoutWatcher creates a watcher expiring assignments through the
// manager. If interval is zero the manager's configured cadence is used.
func NewTimeoutWatcher(m *Manager, interval time.Duration, log logger.Logger) *TimeoutWatcher {
	if interval <= 0 {
		interval = m.cfg.ScanInterval()
	}
	return &TimeoutWatcher{manager: m, interval: interval, logger: log, now: time.Now}
}

// Run scans on the configured cadence until the context is canceled.
func (w *TimeoutWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.Scan(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Scan expires every proposed assignment whose deadline has elapsed. Racing
// a concurrent accept or decline is safe: the losing transition is a no-op.
func (w *TimeoutWatcher) Scan(ctx context.Context) {
	overdue, err := w.manager.store.ListProposedBefore(ctx, w.now())
	if err != nil {
		w.logger.Errorf("watcher scan failed: %v", err)
		return
	}
	for _, a := range overdue {
		out, err := w.manager.Expire(ctx, a.ID)
		if err != nil {
			w.logger.Errorf("expire %s failed: %v", a.ID, err)
			continue
		}
		if out.Stale {
			continue
		}
		w.logger.Infof("assignment %s expired after deadline %s", a.ID, a.ResponseDeadline.Format(time.RFC3339))
	}
}
