package fetcher

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer produces uniformly random pauses. It is advisory pacing, not
// rate limiting.
type Pacer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPacer creates a Pacer seeded from the clock.
func NewPacer() *Pacer {
	return &Pacer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededPacer creates a deterministic Pacer.
func NewSeededPacer(seed int64) *Pacer {
	return &Pacer{rng: rand.New(rand.NewSource(seed))}
}

// Between returns a duration in [lo, hi]. If hi <= lo it returns lo.
func (p *Pacer) Between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	p.mu.Lock()
	n := p.rng.Int63n(int64(hi-lo) + 1)
	p.mu.Unlock()
	return lo + time.Duration(n)
}

// Sleep waits a random duration in [lo, hi] or until ctx is done.
func (p *Pacer) Sleep(ctx context.Context, lo, hi time.Duration) error {
	d := p.Between(lo, hi)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
