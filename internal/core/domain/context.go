package domain

import "slices"

// BuildContext is a configuration's view of the build order it runs in.
type BuildContext struct {
	// Config is the configuration being built.
	Config ConfigRef
	// Referenced lists the configurations it transitively references that are
	// built before it, in build order.
	Referenced []ConfigRef
	// Referencing lists the configurations transitively referencing it that are
	// built after it, in build order.
	Referencing []ConfigRef
	// Requested lists the configurations of the original request, in build order.
	Requested []ConfigRef
}

// IsRequested reports whether ref was part of the original request.
func (c BuildContext) IsRequested(ref ConfigRef) bool {
	return slices.Contains(c.Requested, ref)
}
