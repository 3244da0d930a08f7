package jobs

import (
	"context"
	"time"
)

type Sleeper interface {
	// Sleep blocks for `d` or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewTimerSleeper returns the Sleeper used by default, it waits on a timer.
func NewTimerSleeper() Sleeper {
	return timerSleeper{}
}
