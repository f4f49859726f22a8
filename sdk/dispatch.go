package sdk

import (
	"errors"
	"sync"
)

// errDispatcherClosed is returned for work queued after close.
var errDispatcherClosed = errors.New("dispatcher closed")

type dispatchResult struct {
	value any
	err   error
}

// dispatcher serializes all store writes onto a single goroutine.
//
// Transport callbacks, fetch results and API calls arrive on arbitrary
// goroutines; routing every dispatch through one queue keeps per-subscription
// ordering and keeps reducers off transport goroutines.
type dispatcher struct {
	mu     sync.RWMutex
	q      chan func()
	closed bool
	done   chan struct{}
}

func newDispatcher(queueSize int) *dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &dispatcher{
		q:    make(chan func(), queueSize),
		done: make(chan struct{}),
	}
	go func() {
		defer close(d.done)
		for fn := range d.q {
			if fn != nil {
				fn()
			}
		}
	}()
	return d
}

// do queues fn without waiting for it.
func (d *dispatcher) do(fn func()) error {
	if fn == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errDispatcherClosed
	}
	d.q <- fn
	return nil
}

// call runs fn on the dispatcher goroutine and waits for its result. It must
// not be used from the dispatcher goroutine itself.
func (d *dispatcher) call(fn func() (any, error)) (any, error) {
	if fn == nil {
		return nil, nil
	}
	done := make(chan dispatchResult, 1)
	err := d.do(func() {
		value, err := fn()
		done <- dispatchResult{value: value, err: err}
	})
	if err != nil {
		return nil, err
	}
	res := <-done
	return res.value, res.err
}

// flush waits until everything queued so far has run.
func (d *dispatcher) flush() {
	_, _ = d.call(func() (any, error) { return nil, nil })
}

// close stops accepting work, runs what is queued and waits for the
// goroutine to exit. It is idempotent.
func (d *dispatcher) close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.q)
	}
	d.mu.Unlock()
	<-d.done
}
