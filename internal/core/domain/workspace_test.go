package domain_test

import (
	"errors"
	"testing"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestWorkspace_AddProject(t *testing.T) {
	ws := domain.NewWorkspace("/ws")

	if err := ws.AddProject(domain.NewProject("app")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ws.AddProject(domain.NewProject("app"))
	if !errors.Is(err, domain.ErrDuplicateProjectName) {
		t.Fatalf("expected ErrDuplicateProjectName, got %v", err)
	}
	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	if name, ok := zErr.Metadata()["project"].(string); !ok || name != "app" {
		t.Errorf("expected metadata project=app, got %v", zErr.Metadata()["project"])
	}
}

func TestWorkspace_AddProjectValidation(t *testing.T) {
	ws := domain.NewWorkspace("/ws")

	if err := ws.AddProject(domain.NewProject("bad name")); !errors.Is(err, domain.ErrInvalidProjectName) {
		t.Errorf("expected ErrInvalidProjectName, got %v", err)
	}

	dup := domain.NewProject("dup")
	dup.Configs = []string{"a", "a"}
	if err := ws.AddProject(dup); !errors.Is(err, domain.ErrDuplicateConfigName) {
		t.Errorf("expected ErrDuplicateConfigName, got %v", err)
	}

	undeclared := domain.NewProject("undeclared")
	undeclared.Active = "missing"
	if err := ws.AddProject(undeclared); !errors.Is(err, domain.ErrConfigNotDeclared) {
		t.Errorf("expected ErrConfigNotDeclared, got %v", err)
	}
}

func TestWorkspace_AddProjectDefaults(t *testing.T) {
	ws := domain.NewWorkspace("/ws")
	p := &domain.Project{Name: "app", Open: true}
	if err := ws.AddProject(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := ws.Project("app")
	if !ok {
		t.Fatal("expected project to be registered")
	}
	if got.Active != domain.DefaultConfig || len(got.Configs) != 1 {
		t.Errorf("expected the default configuration, got %v active %q", got.Configs, got.Active)
	}
	if p.Active != "" {
		t.Error("expected the caller's project to be left untouched")
	}
}

func TestWorkspace_ProjectReturnsCopy(t *testing.T) {
	ws := domain.NewWorkspace("/ws")
	if err := ws.AddProject(domain.NewProject("app")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, _ := ws.Project("app")
	p.Configs = append(p.Configs, "hacked")

	again, _ := ws.Project("app")
	if again.HasConfig("hacked") {
		t.Error("expected mutation of a returned project not to leak into the workspace")
	}
}

func TestWorkspace_ResolveActiveAtUseTime(t *testing.T) {
	ws := domain.NewWorkspace("/ws")
	p := domain.NewProject("app")
	p.Configs = []string{"debug", "release"}
	p.Active = "debug"
	if err := ws.AddProject(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := domain.ActiveConfigOf("app")
	if !ws.Same(stored, domain.NewConfigRef("app", "debug")) {
		t.Error("expected the active reference to resolve to debug")
	}

	if err := ws.SetActive("app", "release"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ws.Same(stored, domain.NewConfigRef("app", "release")) {
		t.Error("expected the stored active reference to follow the active configuration")
	}
	if ws.Same(stored, domain.NewConfigRef("app", "debug")) {
		t.Error("expected the stored reference to no longer match debug")
	}

	if err := ws.SetActive("app", "nope"); !errors.Is(err, domain.ErrConfigNotDeclared) {
		t.Errorf("expected ErrConfigNotDeclared, got %v", err)
	}
}

func TestWorkspace_OpenCloseDelete(t *testing.T) {
	ws := domain.NewWorkspace("/ws")
	if err := ws.AddProject(domain.NewProject("app")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ws.SetOpen("app", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ws.Resolve(domain.ActiveConfigOf("app")); ok {
		t.Error("expected a closed project not to resolve")
	}

	desc := domain.NewProject("app")
	desc.Configs = []string{"default", "extra"}
	if err := ws.SetDescription(desc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ := ws.Project("app")
	if p.Open {
		t.Error("expected SetDescription to keep the project closed")
	}
	if !p.HasConfig("extra") {
		t.Error("expected the new description to be applied")
	}

	if err := ws.Delete("app"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ws.Projects()) != 0 {
		t.Error("expected the project to be removed")
	}
	if err := ws.Delete("app"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
	if err := ws.SetDescription(desc); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestNewWorkspaceFromSpec(t *testing.T) {
	spec := &domain.WorkspaceSpec{
		Root:       "/ws",
		Projects:   []*domain.Project{domain.NewProject("b"), domain.NewProject("a")},
		BuildOrder: []string{"a"},
	}
	ws, err := domain.NewWorkspaceFromSpec(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws.Root() != "/ws" {
		t.Errorf("expected root /ws, got %s", ws.Root())
	}
	projects := ws.Projects()
	if len(projects) != 2 || projects[0].Name != "b" || projects[1].Name != "a" {
		t.Errorf("expected registration order [b a], got %v", projects)
	}
	if got := ws.BuildOrder(); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected build order [a], got %v", got)
	}
}
