package ports

import (
	"net/http"
	"time"
)

//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks

// Metrics records build engine activity.
type Metrics interface {
	// InvocationStarted counts a new top-level invocation.
	InvocationStarted(trigger string)
	// InvocationFinished records the outcome of an invocation.
	InvocationFinished(trigger, phase string, passes int, elapsed time.Duration)
	// UnitFinished records one build unit.
	UnitFinished(builder, outcome string, elapsed time.Duration)
	// SetRunning reports the number of units currently holding a scheduling rule.
	SetRunning(n int)
	// Handler exposes the collected metrics over HTTP.
	Handler() http.Handler
}
