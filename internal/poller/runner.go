// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run polls once immediately, then on every interval, and hands each
// PollResult to out. Cycles never overlap: a slow cycle delays the next
// tick instead of queueing one. Run returns when ctx ends.
func (p *Poller) Run(ctx context.Context, out chan<- PollResult) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		if !p.emit(ctx, out) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// emit runs one cycle and reports false once ctx has ended.
func (p *Poller) emit(ctx context.Context, out chan<- PollResult) bool {
	res := p.PollOnce()
	if res.Err != nil {
		p.logger.Debug().Err(res.Err).Msg("poll cycle failed")
	}
	select {
	case out <- res:
		return true
	case <-ctx.Done():
		return false
	}
}
