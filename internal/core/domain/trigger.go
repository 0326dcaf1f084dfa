package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// TriggerKind describes why a build pass was requested.
type TriggerKind uint8

const (
	// TriggerIncremental builds only what changed since the last committed state.
	TriggerIncremental TriggerKind = iota
	// TriggerFull rebuilds everything regardless of prior state.
	TriggerFull
	// TriggerAuto is an incremental build started by a workspace change.
	TriggerAuto
	// TriggerClean discards prior state and invokes the builder's clean operation.
	TriggerClean
)

var triggerNames = [...]string{
	TriggerIncremental: "incremental",
	TriggerFull:        "full",
	TriggerAuto:        "auto",
	TriggerClean:       "clean",
}

// String returns the lower-case name of the trigger.
func (k TriggerKind) String() string {
	if int(k) < len(triggerNames) {
		return triggerNames[k]
	}
	return "unknown"
}

// IsIncremental reports whether the trigger builds against a committed baseline.
func (k TriggerKind) IsIncremental() bool {
	return k == TriggerIncremental || k == TriggerAuto
}

// ParseTriggerKind parses a trigger name as produced by String.
func ParseTriggerKind(s string) (TriggerKind, error) {
	for i, name := range triggerNames {
		if strings.EqualFold(s, name) {
			return TriggerKind(i), nil
		}
	}
	return 0, zerr.With(zerr.Wrap(ErrInvalidTrigger, "unknown trigger"), "trigger", s)
}

// TriggerSet is a set of enabled trigger kinds.
type TriggerSet uint8

// AllTriggers enables every trigger kind.
const AllTriggers TriggerSet = 1<<TriggerIncremental | 1<<TriggerFull | 1<<TriggerAuto | 1<<TriggerClean

// NewTriggerSet returns a set containing the given kinds.
func NewTriggerSet(kinds ...TriggerKind) TriggerSet {
	var s TriggerSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// Has reports whether the kind is enabled.
func (s TriggerSet) Has(k TriggerKind) bool {
	return s&(1<<k) != 0
}

// Kinds lists the enabled kinds in declaration order.
func (s TriggerSet) Kinds() []TriggerKind {
	var kinds []TriggerKind
	for i := range triggerNames {
		if s.Has(TriggerKind(i)) {
			kinds = append(kinds, TriggerKind(i))
		}
	}
	return kinds
}
