package crawler

import (
	"context"
	"time"
)

// pauseController abstracts the politeness delay between page navigations.
// The delay is a hard requirement of the design, not tuning: the target sites
// throttle aggressive clients, and a blocked crawler collects nothing.
type pauseController interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauseController struct{}

func (p *timerPauseController) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// visitTracker prevents revisiting a category page when the menu links back
// into an ancestor. The crawl is single-threaded, so a plain map suffices.
type visitTracker struct {
	seen map[string]struct{}
}

func newVisitTracker() *visitTracker {
	return &visitTracker{seen: make(map[string]struct{})}
}

// MarkIfNew records the URL and reports whether it was unseen.
func (t *visitTracker) MarkIfNew(url string) bool {
	if url == "" {
		return false
	}
	if _, ok := t.seen[url]; ok {
		return false
	}
	t.seen[url] = struct{}{}
	return true
}
