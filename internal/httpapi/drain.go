package httpapi

import (
	"context"
	"net/http"
	"sync"
)

// Drain counts interview operations in flight per route. Once Start is
// called no new operation is admitted, and Wait returns when the last one
// has finished. Health, audio and record routes are not tracked.
type Drain struct {
	mu       sync.Mutex
	draining bool
	inFlight map[string]int
	total    int
	idle     chan struct{} // closed when total drops to zero; nil when nobody waits
}

func NewDrain() *Drain {
	return &Drain{inFlight: make(map[string]int)}
}

func (d *Drain) enter(route string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.draining {
		return false
	}
	d.inFlight[route]++
	d.total++
	return true
}

func (d *Drain) leave(route string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight[route]--; d.inFlight[route] <= 0 {
		delete(d.inFlight, route)
	}
	d.total--
	if d.total == 0 && d.idle != nil {
		close(d.idle)
		d.idle = nil
	}
}

// Start stops admitting interview operations. It is safe to call more than once.
func (d *Drain) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draining = true
}

func (d *Drain) Draining() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draining
}

// InFlight returns a snapshot of running operations keyed by route pattern.
func (d *Drain) InFlight() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]int, len(d.inFlight))
	for route, n := range d.inFlight {
		out[route] = n
	}
	return out
}

// Wait blocks until no operation is in flight or ctx is done.
func (d *Drain) Wait(ctx context.Context) error {
	d.mu.Lock()
	if d.total == 0 {
		d.mu.Unlock()
		return nil
	}
	if d.idle == nil {
		d.idle = make(chan struct{})
	}
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// interviewRoute registers an interview operation. It is turned away with
// 503 while draining and counted in the drain and the in-flight gauge.
func (r *Router) interviewRoute(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
		if !r.drain.enter(pattern) {
			w.Header().Set("Retry-After", "5")
			http.Error(w, `{"error": "server is shutting down"}`, http.StatusServiceUnavailable)
			return
		}
		r.cfg.Metrics.TrackInFlight(pattern, 1)
		defer func() {
			r.cfg.Metrics.TrackInFlight(pattern, -1)
			r.drain.leave(pattern)
		}()
		h(w, req)
	})
}
