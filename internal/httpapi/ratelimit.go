package httpapi

import (
	"sync"
	"time"
)

const throttleSweepEvery = 5 * time.Minute

// loginThrottle keeps a sliding log of /connect attempts per client IP and
// refuses an attempt once limit of them fall inside the last window.
type loginThrottle struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	attempts map[string][]time.Time

	done     chan struct{}
	doneOnce sync.Once
}

func newLoginThrottle(limit int, window time.Duration) *loginThrottle {
	t := &loginThrottle{
		limit:    limit,
		window:   window,
		now:      time.Now,
		attempts: make(map[string][]time.Time),
		done:     make(chan struct{}),
	}
	go t.sweepLoop()
	return t
}

// Allow records an attempt from ip. A refused attempt is not recorded, and
// the returned duration is the wait until the oldest logged attempt expires.
func (t *loginThrottle) Allow(ip string) (bool, time.Duration) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	log := recent(t.attempts[ip], now.Add(-t.window))
	if len(log) >= t.limit {
		t.attempts[ip] = log
		return false, log[0].Add(t.window).Sub(now)
	}
	t.attempts[ip] = append(log, now)
	return true, 0
}

// recent drops the leading entries at or before cutoff. log is ordered.
func recent(log []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	return log[i:]
}

func (t *loginThrottle) sweepLoop() {
	tick := time.NewTicker(throttleSweepEvery)
	defer tick.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-tick.C:
			t.sweep()
		}
	}
}

func (t *loginThrottle) sweep() {
	cutoff := t.now().Add(-t.window)
	t.mu.Lock()
	defer t.mu.Unlock()
	for ip, log := range t.attempts {
		if log = recent(log, cutoff); len(log) == 0 {
			delete(t.attempts, ip)
		} else {
			t.attempts[ip] = log
		}
	}
}

// Stop ends the sweeper. Allow keeps working afterwards.
func (t *loginThrottle) Stop() {
	t.doneOnce.Do(func() { close(t.done) })
}
