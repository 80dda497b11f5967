// internal/worker/poller.go
package worker

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/coldpilot/coldpilot-backend/internal/queue"
)

// Poller periodically claims due queue items and hands them to the broker.
type Poller struct {
	cron    *cron.Cron
	drainer *Drainer
	publish func(queue.Job) error
	logger  *log.Logger
}

// NewPoller creates a new poller
func NewPoller(drainer *Drainer, publish func(queue.Job) error, logger *log.Logger) *Poller {
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		cron:    cron.New(),
		drainer: drainer,
		publish: publish,
		logger:  logger,
	}
}

// Start registers the every-minute drain job and starts the scheduler.
func (p *Poller) Start() error {
	_, err := p.cron.AddFunc("* * * * *", func() {
		items, err := p.drainer.ClaimDue(time.Now())
		if err != nil {
			p.logger.Printf("❌ failed to claim due items: %v", err)
			return
		}
		if len(items) == 0 {
			return
		}

		p.logger.Printf("🕐 claimed %d due item(s)", len(items))
		for _, item := range items {
			if err := p.publish(queue.Job{QueueItemID: item.ID}); err != nil {
				p.logger.Printf("⚠️ failed to publish item %d: %v", item.ID, err)
			}
		}
	})
	if err != nil {
		return err
	}

	p.cron.Start()
	return nil
}

// Stop stops the scheduler, waiting for a running job to finish.
func (p *Poller) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}
