package internal

import (
	"context"
	"time"
)

// TimerHandler is invoked once immediately on Start and again on every
// tick thereafter. manager.Manager.reap is the only handler relmq runs
// through a TimerTask, scanning the transaction table for expired
// deadlines every reapInterval.
type TimerHandler func(context.Context)

// TimerTask runs a TimerHandler on a fixed interval until Stop is
// called or its context is canceled.
type TimerTask struct {
	cancel context.CancelFunc
	done   DoneChan
}

func (t *TimerTask) do(ctx context.Context, h TimerHandler, timeout time.Duration) {
	defer close(t.done)
	ticker := time.NewTicker(timeout)
	defer ticker.Stop()
	h(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h(ctx)
		}
	}
}

// Start runs h immediately, then every timeout until Stop is called.
func (t *TimerTask) Start(ctx context.Context, h TimerHandler, timeout time.Duration) {
	t.done = make(DoneChan)
	ctx, t.cancel = context.WithCancel(ctx)
	go t.do(ctx, h, timeout)
}

// Stop cancels the task and returns a DoneChan that closes once its
// current handler invocation, if any, returns.
func (t *TimerTask) Stop() DoneChan {
	t.cancel()
	return t.done
}
