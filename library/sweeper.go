package library

import (
	"context"
	"time"
)

// OverdueSweeper runs NotifyOverdue on a fixed interval until its context is
// cancelled.
type OverdueSweeper struct {
	scanner  *OverdueScanner
	clock    Clock
	interval time.Duration
	log      Logger
}

func NewOverdueSweeper(scanner *OverdueScanner, clock Clock, interval time.Duration, log Logger) *OverdueSweeper {
	if log == nil {
		log = nopLogger{}
	}
	return &OverdueSweeper{scanner: scanner, clock: clock, interval: interval, log: log}
}

// Run sweeps once immediately and then on every tick. A failed sweep is
// logged and retried on the next tick. Run returns ctx.Err() on shutdown.
func (s *OverdueSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("overdue sweeper started", "interval", s.interval.String())
	for {
		if _, err := s.scanner.NotifyOverdue(ctx, s.clock.Now()); err != nil {
			s.log.Error("overdue sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
