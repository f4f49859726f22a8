package subscription

import (
	"fmt"
	"sync"

	"github.com/bhandras/chatkit/internal/metrics"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/pkg/logger"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a ConcreteSubscription.
type Status int

const (
	// NotSubscribed has no attachment and no pending completions.
	NotSubscribed Status = iota
	// SubscribingStageOne is acquiring the instance.
	SubscribingStageOne
	// SubscribingStageTwo is attaching the resumable subscription and
	// waiting for the first event.
	SubscribingStageTwo
	// Subscribed has received at least one event on the attachment.
	Subscribed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case NotSubscribed:
		return "notSubscribed"
	case SubscribingStageOne:
		return "subscribingStageOne"
	case SubscribingStageTwo:
		return "subscribingStageTwo"
	case Subscribed:
		return "subscribed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) handshaking() bool {
	return s == SubscribingStageOne || s == SubscribingStageTwo
}

// Completion is invoked once a Subscribe call resolves. err is nil on
// success.
type Completion func(err error)

// Option configures a ConcreteSubscription.
type Option func(*ConcreteSubscription)

// WithMetrics records lifecycle transitions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *ConcreteSubscription) { c.metrics = m }
}

// ConcreteSubscription is the lifecycle state machine of one subscription
// type. Callbacks to the delegate and to completions are never invoked while
// the internal lock is held.
type ConcreteSubscription struct {
	id       uuid.UUID
	typ      state.SubscriptionType
	factory  InstanceFactory
	delegate Delegate
	metrics  *metrics.Metrics

	mu          sync.Mutex
	status      Status
	completions []Completion
	resumable   Resumable
	lastEvent   []byte
	// generation changes whenever the subscription returns to NotSubscribed,
	// so callbacks from a torn down attachment are ignored.
	generation uint64
}

// New creates a ConcreteSubscription in the NotSubscribed state.
func New(t state.SubscriptionType, factory InstanceFactory, delegate Delegate, opts ...Option) *ConcreteSubscription {
	c := &ConcreteSubscription{
		id:       uuid.New(),
		typ:      t,
		factory:  factory,
		delegate: delegate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID identifies this subscription in logs.
func (c *ConcreteSubscription) ID() uuid.UUID { return c.id }

// Type returns the subscription type.
func (c *ConcreteSubscription) Type() state.SubscriptionType { return c.typ }

// Status returns the current lifecycle state.
func (c *ConcreteSubscription) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Subscribe requests the subscription. From NotSubscribed it starts the
// handshake; during a handshake completion is queued; once subscribed
// completion succeeds immediately and the last event is delivered again.
func (c *ConcreteSubscription) Subscribe(completion Completion) {
	c.mu.Lock()
	switch c.status {
	case Subscribed:
		ev := c.lastEvent
		c.mu.Unlock()
		if completion != nil {
			completion(nil)
		}
		if ev != nil {
			c.delegate.DidReceiveEvent(c.typ, ev)
		}
		return

	case SubscribingStageOne, SubscribingStageTwo:
		c.completions = append(c.completions, completion)
		c.mu.Unlock()
		return
	}

	c.completions = append(c.completions, completion)
	c.transition(SubscribingStageOne)
	gen := c.generation
	c.mu.Unlock()

	instance, err := c.factory.MakeInstance(c.typ)
	if err != nil {
		c.handshakeFailed(gen, fmt.Errorf("make instance for %s: %w", c.typ, err))
		return
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.transition(SubscribingStageTwo)
	c.mu.Unlock()

	res, err := instance.SubscribeWithResume(Path(c.typ), c.listener(gen))
	if err != nil {
		c.handshakeFailed(gen, fmt.Errorf("subscribe to %s: %w", Path(c.typ), err))
		return
	}

	c.mu.Lock()
	if c.generation != gen {
		// Torn down while attaching.
		c.mu.Unlock()
		res.End()
		return
	}
	c.resumable = res
	c.mu.Unlock()
}

// Unsubscribe tears the subscription down. Interrupting a handshake fails
// every queued completion with ErrUnsubscribeWhileSubscribing.
func (c *ConcreteSubscription) Unsubscribe() {
	c.mu.Lock()
	prev := c.status
	if prev == NotSubscribed {
		c.mu.Unlock()
		return
	}
	res, pending := c.reset()
	c.mu.Unlock()

	if res != nil {
		res.End()
	}
	if prev.handshaking() {
		c.delegate.DidReceiveError(c.typ, ErrUnsubscribeWhileSubscribing)
		fail(pending, ErrUnsubscribeWhileSubscribing)
	}
}

func (c *ConcreteSubscription) listener(gen uint64) Listener {
	return Listener{
		OnEvent: func(raw []byte) { c.handleEvent(gen, raw) },
		OnError: func(err error) { c.handleError(gen, err) },
		OnEnd:   func() { c.handleEnd(gen) },
	}
}

func (c *ConcreteSubscription) handleEvent(gen uint64, raw []byte) {
	c.mu.Lock()
	if c.generation != gen || c.status == NotSubscribed {
		c.mu.Unlock()
		return
	}
	c.lastEvent = raw
	var ready []Completion
	if c.status.handshaking() {
		ready = c.completions
		c.completions = nil
		c.transition(Subscribed)
	}
	c.mu.Unlock()

	c.delegate.DidReceiveEvent(c.typ, raw)
	for _, done := range ready {
		if done != nil {
			done(nil)
		}
	}
}

// handleError reports a transport error. Once subscribed the subscription
// stays subscribed and the transport keeps resuming.
func (c *ConcreteSubscription) handleError(gen uint64, err error) {
	c.mu.Lock()
	if c.generation != gen || c.status == NotSubscribed {
		c.mu.Unlock()
		return
	}
	if c.status == Subscribed {
		c.mu.Unlock()
		logger.Debugf("subscription %s: error while subscribed: %v", c.typ, err)
		c.delegate.DidReceiveError(c.typ, err)
		return
	}
	res, pending := c.reset()
	c.mu.Unlock()

	if res != nil {
		res.End()
	}
	c.delegate.DidReceiveError(c.typ, err)
	fail(pending, err)
}

func (c *ConcreteSubscription) handleEnd(gen uint64) {
	c.mu.Lock()
	if c.generation != gen || c.status == NotSubscribed {
		c.mu.Unlock()
		return
	}
	err := ErrEndWhileSubscribed
	if c.status.handshaking() {
		err = ErrEndWhileSubscribing
	}
	res, pending := c.reset()
	c.mu.Unlock()

	if res != nil {
		res.End()
	}
	c.delegate.DidReceiveError(c.typ, err)
	fail(pending, err)
}

// handshakeFailed handles instance creation and attach failures like a
// transport error during the handshake.
func (c *ConcreteSubscription) handshakeFailed(gen uint64, err error) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	_, pending := c.reset()
	c.mu.Unlock()

	c.delegate.DidReceiveError(c.typ, err)
	fail(pending, err)
}

// reset returns to NotSubscribed and hands back the attachment and queued
// completions. Callers hold c.mu.
func (c *ConcreteSubscription) reset() (Resumable, []Completion) {
	res, pending := c.resumable, c.completions
	c.resumable, c.completions, c.lastEvent = nil, nil, nil
	c.generation++
	c.transition(NotSubscribed)
	return res, pending
}

// transition sets the status. Callers hold c.mu.
func (c *ConcreteSubscription) transition(next Status) {
	logger.Debugf("subscription %s [%s]: %s -> %s", c.typ, c.id, c.status, next)
	c.status = next
	c.metrics.SubscriptionTransition(c.typ.Kind.String(), next.String())
}

func fail(pending []Completion, err error) {
	for _, done := range pending {
		if done != nil {
			done(err)
		}
	}
}
