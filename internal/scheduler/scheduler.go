// Package scheduler fires a callback at wall-clock interval boundaries.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// epsilon lands each firing just past the boundary so the interval being
// acted on has unambiguously finished.
const epsilon = 100 * time.Microsecond

// Delay computes how long to sleep from now until just after the next
// boundary of the given period. Boundaries align to the top of the UTC hour,
// the grid the venue cuts its candles on: a 15 minute period fires at :00,
// :15, :30 and :45.
func Delay(now time.Time, period time.Duration) time.Duration {
	now = now.UTC()
	mins := int(period / time.Minute)
	if mins < 1 {
		mins = 1
	}
	secs := (mins-now.Minute()%mins)*60 - now.Second()
	return time.Duration(secs)*time.Second - time.Duration(now.Nanosecond()/1e3)*time.Microsecond + epsilon
}

// Scheduler sleeps to each boundary and runs the callback there. The next
// delay is always recomputed from the clock after the callback returns, so a
// slow callback delays the following firing but never shifts the grid and
// never stacks a second firing on top of a running one.
type Scheduler struct {
	period time.Duration
	fire   func(context.Context)
	log    zerolog.Logger
	now    func() time.Time
}

// New builds a scheduler for the given period, one minute or coarser.
func New(period time.Duration, fire func(context.Context), log zerolog.Logger) *Scheduler {
	return &Scheduler{period: period, fire: fire, log: log, now: time.Now}
}

// Run fires until ctx is canceled and returns the cancellation cause.
// Cancellation is honored mid-sleep.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		delay := Delay(s.now(), s.period)
		s.log.Debug().Dur("sleep", delay).Msg("armed for next boundary")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		s.fire(ctx)
	}
}
