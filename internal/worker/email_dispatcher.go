package worker

import (
	"context"
	"sync"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
)

// EmailDispatcher delivers queued email jobs on a fixed interval
type EmailDispatcher struct {
	emails    email.Service
	interval  time.Duration
	batchSize int
	logger    *logger.Logger

	mu sync.Mutex
}

// NewEmailDispatcher creates a new email dispatcher worker
func NewEmailDispatcher(emails email.Service, interval time.Duration, batchSize int, log *logger.Logger) *EmailDispatcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &EmailDispatcher{
		emails:    emails,
		interval:  interval,
		batchSize: batchSize,
		logger:    log,
	}
}

// Start runs the dispatch loop until ctx is cancelled
func (d *EmailDispatcher) Start(ctx context.Context) {
	d.logger.WithFields(map[string]interface{}{
		"interval":   d.interval.String(),
		"batch_size": d.batchSize,
	}).Info("Starting email dispatcher worker")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// Run initial dispatch
	d.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			d.RunOnce(ctx)
		case <-ctx.Done():
			d.logger.Info("Email dispatcher worker stopped")
			return
		}
	}
}

// RunOnce drains pending jobs batch by batch until a batch sends nothing
// or comes back short. It returns the number of emails sent.
func (d *EmailDispatcher) RunOnce(ctx context.Context) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := 0
	for ctx.Err() == nil {
		sent, err := d.emails.DispatchPending(ctx, d.batchSize)
		total += sent
		if err != nil {
			d.logger.ErrorWithErr(err, "Failed to dispatch pending emails")
			break
		}
		if sent == 0 || sent < d.batchSize {
			break
		}
	}

	if total > 0 {
		d.logger.WithFields(map[string]interface{}{
			"sent": total,
		}).Info("Dispatched pending emails")
	}
	return total
}
