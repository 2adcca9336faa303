// Package scheduler runs the relay cycle on a fixed interval, isolating
// per-cycle failures from the process.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// CycleRunner executes one full triage pass.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// Scheduler drives the cycle loop. A failed cycle is logged and the loop
// continues; nothing below this boundary may terminate the process.
type Scheduler struct {
	relay CycleRunner
	log   *slog.Logger
	tick  time.Duration
}

// New creates a Scheduler running one cycle per tick.
func New(relay CycleRunner, tick time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		relay: relay,
		log:   log,
		tick:  tick,
	}
}

// SetTickInterval overrides the cycle interval (useful for testing).
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the cycle loop, blocking until ctx is cancelled. The first
// cycle runs immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.runCycle(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	s.log.Info("running cycle")
	if err := s.relay.RunCycle(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("cycle failed", "error", err)
	}
}
