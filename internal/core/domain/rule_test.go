package domain_test

import (
	"testing"

	"go.trai.ch/kiln/internal/core/domain"
)

func TestConflicts(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.SchedulingRule
		want bool
	}{
		{"both relaxed", nil, nil, false},
		{"relaxed vs workspace", nil, domain.WorkspaceRule(), true},
		{"workspace vs relaxed", domain.WorkspaceRule(), nil, true},
		{"relaxed vs project", nil, domain.ProjectRule("a"), false},
		{"same project", domain.ProjectRule("a"), domain.ProjectRule("a"), true},
		{"different projects", domain.ProjectRule("a"), domain.ProjectRule("b"), false},
		{"prefix name is not a parent", domain.ProjectRule("a"), domain.ProjectRule("ab"), false},
		{"workspace vs project", domain.WorkspaceRule(), domain.ProjectRule("a"), true},
		{"project vs its subtree", domain.ProjectRule("a"), domain.PathRule("/a/out"), true},
		{"multi overlaps", domain.Combine(domain.ProjectRule("a"), domain.ProjectRule("b")), domain.ProjectRule("b"), true},
		{"multi disjoint", domain.Combine(domain.ProjectRule("a"), domain.ProjectRule("b")), domain.ProjectRule("c"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.Conflicts(tt.a, tt.b); got != tt.want {
				t.Errorf("Conflicts() = %v, want %v", got, tt.want)
			}
			if got := domain.Conflicts(tt.b, tt.a); got != tt.want {
				t.Errorf("Conflicts() is not symmetric")
			}
		})
	}
}

func TestRule_Contains(t *testing.T) {
	ws := domain.WorkspaceRule()
	if !ws.Contains(domain.ProjectRule("a")) {
		t.Error("expected the workspace rule to contain a project rule")
	}
	if domain.ProjectRule("a").Contains(ws) {
		t.Error("expected a project rule not to contain the workspace rule")
	}
	multi := domain.Combine(domain.ProjectRule("a"), domain.ProjectRule("b"))
	if !multi.Contains(domain.Combine(domain.ProjectRule("b"), domain.PathRule("/a/x"))) {
		t.Error("expected a combined rule to contain its parts")
	}
	if domain.Combine(nil, nil) != nil {
		t.Error("expected combining only relaxed rules to stay relaxed")
	}
}
