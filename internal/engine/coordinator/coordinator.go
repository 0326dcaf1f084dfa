// Package coordinator admits build units for execution based on their
// scheduling rules and the concurrency cap of the invocation they belong to.
package coordinator

import (
	"context"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
)

// Coordinator tracks the scheduling rules currently held by running units.
// A unit is admitted when its rule conflicts with no held rule and its group
// holds fewer leases than the group's limit. Rules are shared by all groups.
type Coordinator struct {
	mu      sync.Mutex
	def     *Group
	held    map[*Lease]domain.SchedulingRule
	changed chan struct{}
	peak    int
	onCount func(int)
}

// Group is a set of leases sharing one concurrency cap, usually the units of
// one invocation. The cap is fixed when the group is created.
type Group struct {
	c     *Coordinator
	limit int
	held  int
}

// Lease is a held scheduling rule. It must be released exactly once.
type Lease struct {
	g    *Group
	once sync.Once
	rule domain.SchedulingRule
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRunningObserver registers a callback invoked with the running count
// whenever it changes. The callback runs under the coordinator lock and must not block.
func WithRunningObserver(fn func(running int)) Option {
	return func(c *Coordinator) {
		c.onCount = fn
	}
}

// New creates a Coordinator whose own Acquire admits at most limit
// concurrent units. Groups created with NewGroup carry their own limit.
func New(limit int, opts ...Option) *Coordinator {
	c := &Coordinator{
		held:    make(map[*Lease]domain.SchedulingRule),
		changed: make(chan struct{}),
	}
	c.def = c.NewGroup(limit)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewGroup creates a group admitting at most limit concurrent units.
func (c *Coordinator) NewGroup(limit int) *Group {
	return &Group{c: c, limit: max(limit, 1)}
}

// Acquire blocks until rule can be held in the coordinator's default group,
// or until ctx is done.
func (c *Coordinator) Acquire(ctx context.Context, rule domain.SchedulingRule) (*Lease, error) {
	return c.def.Acquire(ctx, rule)
}

// Limit returns the concurrency cap of the group.
func (g *Group) Limit() int {
	return g.limit
}

// Acquire blocks until rule can be held, or until ctx is done.
func (g *Group) Acquire(ctx context.Context, rule domain.SchedulingRule) (*Lease, error) {
	c := g.c
	for {
		c.mu.Lock()
		if c.admissible(g, rule) {
			l := &Lease{g: g, rule: rule}
			c.held[l] = rule
			g.held++
			c.peak = max(c.peak, len(c.held))
			c.notify()
			c.mu.Unlock()
			return l, nil
		}
		wait := c.changed
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

// Release frees the rule for other units.
func (l *Lease) Release() {
	l.once.Do(func() {
		c := l.g.c
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.held, l)
		l.g.held--
		c.notify()
		c.broadcast()
	})
}

// Rule returns the held rule.
func (l *Lease) Rule() domain.SchedulingRule {
	return l.rule
}

// Running returns the number of held leases.
func (c *Coordinator) Running() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.held)
}

// Peak returns the highest number of leases held at the same time.
func (c *Coordinator) Peak() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

// ResetPeak forgets the recorded peak.
func (c *Coordinator) ResetPeak() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peak = len(c.held)
}

func (c *Coordinator) admissible(g *Group, rule domain.SchedulingRule) bool {
	if g.held >= g.limit {
		return false
	}
	for _, other := range c.held {
		if domain.Conflicts(rule, other) {
			return false
		}
	}
	return true
}

// broadcast wakes every waiter. Must be called with mu held.
func (c *Coordinator) broadcast() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Coordinator) notify() {
	if c.onCount != nil {
		c.onCount(len(c.held))
	}
}
