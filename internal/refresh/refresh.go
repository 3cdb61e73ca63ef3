package refresh

import (
	"context"
	"sync"
	"time"
)

// Job asks for the doctors payload behind CacheKey to be refetched from the
// upstream table.
type Job struct {
	CacheKey string
}

// Refresher runs background refetches with per-key de-duplication: while a
// key is in flight, further enqueues for it are dropped.
type Refresher struct {
	ch    chan Job
	inFly sync.Map // key -> struct{}
	Do    func(ctx context.Context, j Job)
}

func New(capacity int, workerCount int, do func(ctx context.Context, j Job)) *Refresher {
	if capacity <= 0 {
		capacity = 64
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	r := &Refresher{ch: make(chan Job, capacity), Do: do}
	for i := 0; i < workerCount; i++ {
		go r.worker()
	}
	return r
}

func (r *Refresher) Enqueue(j Job) {
	if _, exists := r.inFly.LoadOrStore(j.CacheKey, struct{}{}); exists {
		return
	}
	select {
	case r.ch <- j:
	default:
		// drop if saturated
		r.inFly.Delete(j.CacheKey)
	}
}

func (r *Refresher) worker() {
	for j := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		func() {
			defer func() {
				r.inFly.Delete(j.CacheKey)
				cancel()
			}()
			if r.Do != nil {
				r.Do(ctx, j)
			}
		}()
	}
}
