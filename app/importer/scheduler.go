package importer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/feed-ingest/app/cfg"
)

// Scheduler runs the importer on a fixed cadence. Each run is limited
// to users whose watermark is older than the refresh interval, which
// is what makes failed feeds retry on the normal cadence.
type Scheduler struct {
	importer *Importer
	interval time.Duration
	refresh  time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewScheduler(importer *Importer) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		importer: importer,
		interval: time.Duration(c.SchedulerInterval) * time.Second,
		refresh:  time.Duration(c.RefreshInterval) * time.Second,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) runOnce() {
	cutoff := time.Now().UTC().Add(-s.refresh)

	created, err := s.importer.Run(s.ctx, &cutoff)
	if err != nil {
		slog.Error("Scheduled import failed", "error", err, "created", created)
	}
}
