package domain

import "strings"

// SchedulingRule describes the resources a build unit needs exclusive access to.
// Two units whose rules conflict never run at the same time.
type SchedulingRule interface {
	// Contains reports whether this rule covers every resource of other.
	Contains(other SchedulingRule) bool
	// IsConflicting reports whether this rule and other may not be held together.
	IsConflicting(other SchedulingRule) bool
}

// PathRule locks a subtree of the workspace. "/" is the whole workspace and
// "/name" is the project with that name.
type PathRule string

// WorkspaceRule returns the rule covering the whole workspace.
func WorkspaceRule() SchedulingRule {
	return PathRule("/")
}

// ProjectRule returns the rule covering one project.
func ProjectRule(name string) SchedulingRule {
	return PathRule("/" + name)
}

func (r PathRule) clean() string {
	s := "/" + strings.Trim(string(r), "/")
	return s
}

func (r PathRule) covers(other PathRule) bool {
	a, b := r.clean(), other.clean()
	if a == "/" || a == b {
		return true
	}
	return strings.HasPrefix(b, a+"/")
}

// Contains implements SchedulingRule.
func (r PathRule) Contains(other SchedulingRule) bool {
	switch o := other.(type) {
	case PathRule:
		return r.covers(o)
	case MultiRule:
		for _, child := range o {
			if !r.Contains(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsConflicting implements SchedulingRule.
func (r PathRule) IsConflicting(other SchedulingRule) bool {
	switch o := other.(type) {
	case PathRule:
		return r.covers(o) || o.covers(r)
	case MultiRule:
		return o.IsConflicting(r)
	default:
		return false
	}
}

// MultiRule combines several rules; it conflicts with anything one of its
// children conflicts with.
type MultiRule []SchedulingRule

// Combine returns a rule covering every non-nil rule given, or nil when none remain.
func Combine(rules ...SchedulingRule) SchedulingRule {
	var res MultiRule
	for _, r := range rules {
		if r != nil {
			res = append(res, r)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

// Contains implements SchedulingRule.
func (m MultiRule) Contains(other SchedulingRule) bool {
	if o, ok := other.(MultiRule); ok {
		for _, child := range o {
			if !m.Contains(child) {
				return false
			}
		}
		return true
	}
	for _, r := range m {
		if r.Contains(other) {
			return true
		}
	}
	return false
}

// IsConflicting implements SchedulingRule.
func (m MultiRule) IsConflicting(other SchedulingRule) bool {
	for _, r := range m {
		if Conflicts(r, other) {
			return true
		}
	}
	return false
}

// Conflicts reports whether units holding a and b may not run concurrently.
// A nil rule means the unit needs no lock. It conflicts only with a rule that
// covers the whole workspace.
func Conflicts(a, b SchedulingRule) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil:
		return b.Contains(WorkspaceRule())
	case b == nil:
		return a.Contains(WorkspaceRule())
	default:
		return a.IsConflicting(b) || b.IsConflicting(a)
	}
}
