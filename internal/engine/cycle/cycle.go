// Package cycle decides whether an invocation needs another pass over its build order.
package cycle

import (
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
)

// Controller collects rebuild requests for one invocation.
//
// Requests issued by builders of the running pass are coalesced and bounded by
// the iteration limit. Requests from independent work (foreign requests) are
// coalesced into exactly one extra pass and are not bounded by the limit.
// Requests attributed to the running pass itself are ignored.
type Controller struct {
	mu         sync.Mutex
	limit      int
	current    domain.InvocationID
	iterations int
	rebuild    bool
	foreign    bool
	truncated  bool
	closed     bool
}

// NewController returns a controller allowing at most limit completed passes
// driven by builder rebuild requests.
func NewController(limit int) *Controller {
	return &Controller{limit: max(limit, 1)}
}

// Begin marks the start of the invocation identified by id.
func (c *Controller) Begin(id domain.InvocationID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = id
}

// RequestRebuild records a builder's request for another pass.
func (c *Controller) RequestRebuild() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild = true
}

// Request records a change notification issued by origin. It returns false if
// the invocation has finished and can no longer accept the request.
func (c *Controller) Request(origin domain.InvocationID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	if !origin.IsZero() && origin == c.current {
		return true
	}
	c.foreign = true
	return true
}

// End reports the end of a pass and whether another pass must follow.
// A pass that did not complete is not counted and ends the invocation.
func (c *Controller) End(completed bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !completed {
		c.closed = true
		return false
	}
	c.iterations++

	if c.foreign {
		c.foreign = false
		c.rebuild = false
		return true
	}
	if c.rebuild {
		c.rebuild = false
		if c.iterations < c.limit {
			return true
		}
		c.truncated = true
	}
	c.closed = true
	return false
}

// Iterations returns the number of completed passes.
func (c *Controller) Iterations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.iterations
}

// Truncated reports whether a rebuild request was dropped at the iteration limit.
func (c *Controller) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}

// Closed reports whether the invocation has ended.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
