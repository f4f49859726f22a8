// Package subscriptiontest provides fakes for the subscription collaborators.
package subscriptiontest

import (
	"sync"

	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/subscription"
)

// FakeResumable counts End calls.
type FakeResumable struct {
	mu    sync.Mutex
	ended int
}

var _ subscription.Resumable = (*FakeResumable)(nil)

// End implements subscription.Resumable.
func (r *FakeResumable) End() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended++
}

// Ended returns the number of End calls.
func (r *FakeResumable) Ended() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// FakeInstance records attachments and lets tests drive their listeners.
type FakeInstance struct {
	mu         sync.Mutex
	paths      []string
	listeners  []subscription.Listener
	resumables []*FakeResumable

	// Err, when non-nil, fails SubscribeWithResume.
	Err error

	// OnSubscribe, when non-nil, is invoked inside SubscribeWithResume before
	// it returns. Tests can use it to deliver callbacks synchronously.
	OnSubscribe func(l subscription.Listener)
}

var _ subscription.Instance = (*FakeInstance)(nil)

// SubscribeWithResume implements subscription.Instance.
func (i *FakeInstance) SubscribeWithResume(path string, l subscription.Listener) (subscription.Resumable, error) {
	i.mu.Lock()
	i.paths = append(i.paths, path)
	if i.Err != nil {
		err := i.Err
		i.mu.Unlock()
		return nil, err
	}
	res := &FakeResumable{}
	i.listeners = append(i.listeners, l)
	i.resumables = append(i.resumables, res)
	onSubscribe := i.OnSubscribe
	i.mu.Unlock()

	if onSubscribe != nil {
		onSubscribe(l)
	}
	return res, nil
}

// Paths returns the paths of every SubscribeWithResume call.
func (i *FakeInstance) Paths() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, len(i.paths))
	copy(out, i.paths)
	return out
}

// Resumable returns the most recent attachment.
func (i *FakeInstance) Resumable() *FakeResumable {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.resumables) == 0 {
		return nil
	}
	return i.resumables[len(i.resumables)-1]
}

func (i *FakeInstance) listener() subscription.Listener {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.listeners) == 0 {
		return subscription.Listener{
			OnEvent: func([]byte) {},
			OnError: func(error) {},
			OnEnd:   func() {},
		}
	}
	return i.listeners[len(i.listeners)-1]
}

// Emit delivers an event on the most recent attachment.
func (i *FakeInstance) Emit(raw []byte) { i.listener().OnEvent(raw) }

// Fail delivers an error on the most recent attachment.
func (i *FakeInstance) Fail(err error) { i.listener().OnError(err) }

// End delivers end of stream on the most recent attachment.
func (i *FakeInstance) End() { i.listener().OnEnd() }

// FakeFactory hands out one FakeInstance per subscription type.
type FakeFactory struct {
	mu        sync.Mutex
	calls     []state.SubscriptionType
	instances map[state.SubscriptionType]*FakeInstance

	// Err, when non-nil, fails MakeInstance.
	Err error
}

var _ subscription.InstanceFactory = (*FakeFactory)(nil)

// MakeInstance implements subscription.InstanceFactory.
func (f *FakeFactory) MakeInstance(t state.SubscriptionType) (subscription.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, t)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.instanceLocked(t), nil
}

// Instance returns the instance for t, creating it if needed.
func (f *FakeFactory) Instance(t state.SubscriptionType) *FakeInstance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instanceLocked(t)
}

func (f *FakeFactory) instanceLocked(t state.SubscriptionType) *FakeInstance {
	if f.instances == nil {
		f.instances = make(map[state.SubscriptionType]*FakeInstance)
	}
	inst, ok := f.instances[t]
	if !ok {
		inst = &FakeInstance{}
		f.instances[t] = inst
	}
	return inst
}

// Calls returns the number of MakeInstance calls.
func (f *FakeFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Received is one delegate callback.
type Received struct {
	Type state.SubscriptionType
	Raw  []byte
	Err  error
}

// RecordingDelegate records delegate callbacks.
type RecordingDelegate struct {
	mu     sync.Mutex
	events []Received
	errors []Received
}

var _ subscription.Delegate = (*RecordingDelegate)(nil)

// DidReceiveEvent implements subscription.Delegate.
func (d *RecordingDelegate) DidReceiveEvent(t state.SubscriptionType, raw []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, Received{Type: t, Raw: raw})
}

// DidReceiveError implements subscription.Delegate.
func (d *RecordingDelegate) DidReceiveError(t state.SubscriptionType, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, Received{Type: t, Err: err})
}

// Events returns a snapshot of received events.
func (d *RecordingDelegate) Events() []Received {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Received, len(d.events))
	copy(out, d.events)
	return out
}

// Errors returns a snapshot of received errors.
func (d *RecordingDelegate) Errors() []Received {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Received, len(d.errors))
	copy(out, d.errors)
	return out
}

// Completions collects Subscribe results.
type Completions struct {
	mu      sync.Mutex
	results []error
}

// Func returns a completion that records its result.
func (c *Completions) Func() subscription.Completion {
	return func(err error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.results = append(c.results, err)
	}
}

// Results returns the recorded results.
func (c *Completions) Results() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]error, len(c.results))
	copy(out, c.results)
	return out
}
