package presence

import (
	"time"

	"drivero/pkg/logger"
)

// Sweeper periodically expires stale instructors. The tracker also checks
// staleness lazily on read; the sweep exists so instructors nobody queries
// still flip Offline and emit their availability event.
type Sweeper struct {
	tracker  *Tracker
	interval time.Duration
	log      *logger.Logger
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(tracker *Tracker, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		tracker:  tracker,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.run()
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			swept := s.tracker.SweepStale(time.Now())
			if len(swept) > 0 {
				s.log.Info("Stale instructors swept offline",
					"count", len(swept),
					"instructor_ids", swept,
				)
			}
		case <-s.stop:
			return
		}
	}
}

func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
