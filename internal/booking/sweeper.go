package booking

import (
	"context"
	"time"

	"drivero/pkg/logger"
)

// HoldSweeper periodically drops expired holds. Expiry is a timeout, not a
// cancellation token: lazy wall-clock checks at confirm time are the
// correctness mechanism, the sweep just reclaims memory and notifies.
type HoldSweeper struct {
	coordinator *Coordinator
	interval    time.Duration
	log         *logger.Logger
	stop        chan struct{}
	done        chan struct{}
}

func NewHoldSweeper(coordinator *Coordinator, interval time.Duration, log *logger.Logger) *HoldSweeper {
	return &HoldSweeper{
		coordinator: coordinator,
		interval:    interval,
		log:         log,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (s *HoldSweeper) Start() {
	go s.run()
}

func (s *HoldSweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			n := s.coordinator.SweepExpiredHolds(ctx)
			cancel()
			if n > 0 {
				s.log.Info("Expired holds swept", "count", n)
			}
		case <-s.stop:
			return
		}
	}
}

func (s *HoldSweeper) Stop() {
	close(s.stop)
	<-s.done
}
