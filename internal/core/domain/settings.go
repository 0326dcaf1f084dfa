package domain

import (
	"runtime"
	"time"
)

const (
	// DefaultMaxBuildIterations bounds the passes of one invocation.
	DefaultMaxBuildIterations = 10

	// DefaultAutoBuildDelay is the quiet period before an auto-build pass runs.
	DefaultAutoBuildDelay = 100 * time.Millisecond
)

// Settings holds the workspace-level knobs of the build engine.
type Settings struct {
	// MaxConcurrentBuilds caps the number of build units running at once.
	MaxConcurrentBuilds int
	// MaxBuildIterations caps the passes of one invocation caused by rebuild requests.
	MaxBuildIterations int
	// AutoBuildDelay is the debounce window of the auto-build job.
	AutoBuildDelay time.Duration
	// AutoBuilding enables auto-builds on workspace changes.
	AutoBuilding bool
}

// DefaultSettings returns the settings used when the workspace declares none.
func DefaultSettings() Settings {
	return Settings{
		MaxConcurrentBuilds: runtime.NumCPU(),
		MaxBuildIterations:  DefaultMaxBuildIterations,
		AutoBuildDelay:      DefaultAutoBuildDelay,
		AutoBuilding:        true,
	}
}

// Normalize clamps the numeric settings to their minimum of 1.
func (s Settings) Normalize() Settings {
	s.MaxConcurrentBuilds = max(s.MaxConcurrentBuilds, 1)
	s.MaxBuildIterations = max(s.MaxBuildIterations, 1)
	s.AutoBuildDelay = max(s.AutoBuildDelay, 0)
	return s
}
