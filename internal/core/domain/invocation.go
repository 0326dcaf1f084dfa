package domain

import (
	"context"
	"strconv"
	"sync/atomic"
)

// InvocationID identifies one build invocation. The zero value means none.
type InvocationID uint64

var invocationSeq atomic.Uint64

// NewInvocationID returns a process-unique invocation identifier.
func NewInvocationID() InvocationID {
	return InvocationID(invocationSeq.Add(1))
}

// IsZero reports whether the identifier is unset.
func (id InvocationID) IsZero() bool {
	return id == 0
}

// String returns the decimal form of the identifier.
func (id InvocationID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

type invocationKey struct{}

// WithInvocation returns a context carrying the invocation that issued work on it.
// Builders receive such a context so that change notifications they cause can be
// attributed to the running invocation.
func WithInvocation(ctx context.Context, id InvocationID) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

// InvocationFrom returns the invocation carried by ctx, or zero.
func InvocationFrom(ctx context.Context) InvocationID {
	id, _ := ctx.Value(invocationKey{}).(InvocationID)
	return id
}
