// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop and emits one CycleResult per tick.
// Writes arriving on writes are executed between ticks.
// No overlap. No retries. Run returns when ctx is done; an in-flight
// cycle is always finished and delivered first. out is closed on
// return, so the consumer must drain it until then.
func (p *Poller) Run(ctx context.Context, out chan<- CycleResult, writes <-chan WriteRequest) {
	defer close(out)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return

		case w := <-writes:
			err := p.Write(ctx, w.Register, w.Value)
			if w.Result != nil {
				w.Result <- err
			}

		case <-ticker.C:
			// the cycle itself runs to completion even if ctx ends mid-way
			out <- p.Tick(context.WithoutCancel(ctx))
		}
	}
}

// Quiesce waits out pause and then closes the line. Call it after Run
// has returned.
func Quiesce(pause time.Duration, closer interface{ Close() error }) error {
	time.Sleep(pause)
	return closer.Close()
}
