package domain

import (
	"maps"
	"strconv"
	"time"
)

// BuilderState is the last committed state of one build command of a configuration.
type BuilderState struct {
	// Builder identifies the build command the state belongs to.
	Builder string
	// Tree is the configuration's tree as of the last committed build.
	Tree *Snapshot
	// Forgotten marks a baseline discarded by the builder; the next build is full.
	Forgotten bool
	// Interesting holds the trees of the configurations the builder reported
	// as interesting, as of the last committed build.
	Interesting map[ConfigRef]*Snapshot
	// BuiltAt is the commit time.
	BuiltAt time.Time
}

// HasBaseline reports whether an incremental build can run against this state.
func (s *BuilderState) HasBaseline() bool {
	return s != nil && !s.Forgotten && s.Tree != nil
}

// Clone returns a copy of the state.
func (s *BuilderState) Clone() *BuilderState {
	if s == nil {
		return nil
	}
	c := *s
	c.Interesting = maps.Clone(s.Interesting)
	return &c
}

// BuildState is the persisted last-built state of one configuration.
type BuildState struct {
	Config   ConfigRef
	Builders map[string]*BuilderState
}

// NewBuildState returns an empty state for a configuration.
func NewBuildState(ref ConfigRef) *BuildState {
	return &BuildState{
		Config:   ref,
		Builders: make(map[string]*BuilderState),
	}
}

// BuilderKey identifies a build command by its position and builder identifier.
// The same builder may appear more than once in a project's command list.
func BuilderKey(index int, builder string) string {
	return strconv.Itoa(index) + "/" + builder
}
