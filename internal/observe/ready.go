package observe

import (
	"context"
	"sync"
)

// Ready is a one-shot readiness signal. It replaces polling: a producer
// signals once, and any number of consumers wait on Done.
type Ready struct {
	once sync.Once
	ch   chan struct{}
}

// NewReady creates an unsignalled Ready.
func NewReady() *Ready {
	return &Ready{ch: make(chan struct{})}
}

// Signal marks the producer ready. Extra calls are ignored.
func (r *Ready) Signal() {
	r.once.Do(func() { close(r.ch) })
}

// Done returns a channel closed once Signal has been called.
func (r *Ready) Done() <-chan struct{} {
	return r.ch
}

// IsReady reports whether Signal has been called.
func (r *Ready) IsReady() bool {
	select {
	case <-r.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until r is signalled or ctx is done.
func (r *Ready) Wait(ctx context.Context) error {
	select {
	case <-r.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitAll waits for every signal in rs.
func WaitAll(ctx context.Context, rs ...*Ready) error {
	for _, r := range rs {
		if err := r.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
